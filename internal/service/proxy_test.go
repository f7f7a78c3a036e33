package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type ProxyServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service ProxyService
}

func TestProxyService(t *testing.T) {
	suite.Run(t, new(ProxyServiceSuite))
}

func (s *ProxyServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewProxyService(s.params)
}

func (s *ProxyServiceSuite) create(ip string, port int) *dto.ProxyResponse {
	resp, err := s.service.CreateProxy(s.ctx, &dto.CreateProxyRequest{
		Label:     "dongle-1",
		IPAddress: ip,
		Port:      port,
		Location:  "Berlin",
		ISP:       "Vodafone",
	})
	s.NoError(err)
	return resp
}

func (s *ProxyServiceSuite) TestCreateProxy() {
	resp := s.create("10.0.0.1", 8080)
	s.Equal(types.ProxyStatusAvailable, resp.Status)
	s.Equal("10.0.0.1", resp.IPAddress)
	s.Equal(8080, resp.Port)
}

func (s *ProxyServiceSuite) TestCreateDuplicateAddress() {
	s.create("10.0.0.1", 8080)

	_, err := s.service.CreateProxy(s.ctx, &dto.CreateProxyRequest{
		Label:     "dongle-2",
		IPAddress: "10.0.0.1",
		Port:      8080,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *ProxyServiceSuite) TestCreateInvalidPayload() {
	_, err := s.service.CreateProxy(s.ctx, &dto.CreateProxyRequest{
		Label:     "dongle-1",
		IPAddress: "not-an-ip",
		Port:      8080,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ProxyServiceSuite) TestUpdateProxy() {
	resp := s.create("10.0.0.1", 8080)

	label := "renamed"
	location := "Hamburg"
	updated, err := s.service.UpdateProxy(s.ctx, resp.ID, &dto.UpdateProxyRequest{
		Label:    &label,
		Location: &location,
	})
	s.NoError(err)
	s.Equal("renamed", updated.Label)
	s.Equal("Hamburg", updated.Location)

	// untouched fields survive
	s.Equal("Vodafone", updated.ISP)
}

func (s *ProxyServiceSuite) TestIsAvailable() {
	resp := s.create("10.0.0.1", 8080)

	available, err := s.service.IsAvailable(s.ctx, resp.ID)
	s.NoError(err)
	s.True(available)
}

func (s *ProxyServiceSuite) TestIsAvailableUnknownProxy() {
	_, err := s.service.IsAvailable(s.ctx, "proxy-missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ProxyServiceSuite) TestIsAvailableWhileLeased() {
	resp := s.create("10.0.0.1", 8080)

	allocSvc := NewAllocationService(s.params)
	_, err := allocSvc.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      resp.ID,
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.NoError(err)

	available, err := s.service.IsAvailable(s.ctx, resp.ID)
	s.NoError(err)
	s.False(available)
}

func (s *ProxyServiceSuite) TestIsAvailableInMaintenance() {
	resp := s.create("10.0.0.1", 8080)
	s.NoError(s.service.SetProxyStatus(s.ctx, resp.ID, types.ProxyStatusMaintenance))

	available, err := s.service.IsAvailable(s.ctx, resp.ID)
	s.NoError(err)
	s.False(available)
}

func (s *ProxyServiceSuite) TestSetStatusAllocatedRejected() {
	resp := s.create("10.0.0.1", 8080)

	err := s.service.SetProxyStatus(s.ctx, resp.ID, types.ProxyStatusAllocated)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ProxyServiceSuite) TestDeleteProxy() {
	resp := s.create("10.0.0.1", 8080)

	s.NoError(s.service.DeleteProxy(s.ctx, resp.ID))

	_, err := s.service.GetProxy(s.ctx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *ProxyServiceSuite) TestDeleteLeasedProxy() {
	resp := s.create("10.0.0.1", 8080)

	allocSvc := NewAllocationService(s.params)
	_, err := allocSvc.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      resp.ID,
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.NoError(err)

	err = s.service.DeleteProxy(s.ctx, resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *ProxyServiceSuite) TestRecordHealthCheck() {
	resp := s.create("10.0.0.1", 8080)

	at := time.Now().UTC()
	s.NoError(s.service.RecordHealthCheck(s.ctx, resp.ID, at, true))

	got, err := s.service.GetProxy(s.ctx, resp.ID)
	s.NoError(err)
	s.NotNil(got.LastHealthCheck)
	s.WithinDuration(at, *got.LastHealthCheck, time.Second)
	s.Equal(types.ProxyStatusAvailable, got.Status)
}

func (s *ProxyServiceSuite) TestRecordHealthCheckDisablesUnhealthy() {
	resp := s.create("10.0.0.1", 8080)

	s.NoError(s.service.RecordHealthCheck(s.ctx, resp.ID, time.Now().UTC(), false))

	got, err := s.service.GetProxy(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.ProxyStatusDisabled, got.Status)

	// a passing check brings it back into rotation
	s.NoError(s.service.RecordHealthCheck(s.ctx, resp.ID, time.Now().UTC(), true))
	got, err = s.service.GetProxy(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.ProxyStatusAvailable, got.Status)
}

func (s *ProxyServiceSuite) TestRecordHealthCheckKeepsAllocatedStatus() {
	resp := s.create("10.0.0.1", 8080)
	s.NoError(s.stores.proxyRepo.UpdateStatus(s.ctx, resp.ID, types.ProxyStatusAllocated))

	s.NoError(s.service.RecordHealthCheck(s.ctx, resp.ID, time.Now().UTC(), false))

	got, err := s.service.GetProxy(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.ProxyStatusAllocated, got.Status)
	s.NotNil(got.LastHealthCheck)
}

func (s *ProxyServiceSuite) TestListProxiesByStatus() {
	s.create("10.0.0.1", 8080)
	second := s.create("10.0.0.2", 8080)
	s.NoError(s.service.SetProxyStatus(s.ctx, second.ID, types.ProxyStatusDisabled))

	status := types.ProxyStatusDisabled
	disabled, err := s.service.ListProxies(s.ctx, &dto.ListProxiesRequest{Status: &status})
	s.NoError(err)
	s.Len(disabled, 1)
	s.Equal(second.ID, disabled[0].ID)
}
