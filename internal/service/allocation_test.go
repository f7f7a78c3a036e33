package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/allocation"
	"github.com/proxynest/proxynest/internal/domain/proxy"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type AllocationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service AllocationService
	seeded  int
}

func TestAllocationService(t *testing.T) {
	suite.Run(t, new(AllocationServiceSuite))
}

func (s *AllocationServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewAllocationService(s.params)
	s.seeded = 0
}

// seedProxy hands out a distinct address per proxy so the store's
// address uniqueness guard never trips across seeds.
func (s *AllocationServiceSuite) seedProxy(id string) *proxy.Proxy {
	s.seeded++
	p := &proxy.Proxy{
		ID:        id,
		Label:     "dongle-" + id,
		IPAddress: fmt.Sprintf("10.0.0.%d", s.seeded),
		Port:      8080,
		Status:    types.ProxyStatusAvailable,
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.NoError(s.stores.proxyRepo.Create(s.ctx, p))
	return p
}

func (s *AllocationServiceSuite) allocate(proxyID string) *dto.AllocationResponse {
	resp, err := s.service.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      proxyID,
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.NoError(err)
	return resp
}

func (s *AllocationServiceSuite) TestAllocate() {
	s.seedProxy("proxy-1")

	resp := s.allocate("proxy-1")
	s.Equal(types.AllocationStatusActive, resp.Status)
	s.Equal("proxy-1", resp.ProxyID)
	s.Equal(types.DefaultTenantID, resp.TenantID)

	// lease runs the default length
	s.WithinDuration(resp.StartsAt.AddDate(0, 0, types.DefaultAllocationDays), resp.EndsAt, time.Second)

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAllocated, p.Status)
}

func (s *AllocationServiceSuite) TestAllocateHeldProxy() {
	s.seedProxy("proxy-1")
	s.allocate("proxy-1")

	_, err := s.service.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      "proxy-1",
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.Error(err)
	s.True(ierr.IsResourceUnavailable(err))
}

func (s *AllocationServiceSuite) TestAllocateUnknownProxy() {
	_, err := s.service.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      "proxy-missing",
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *AllocationServiceSuite) TestAllocateProxyInMaintenance() {
	p := s.seedProxy("proxy-1")
	p.Status = types.ProxyStatusMaintenance
	s.NoError(s.stores.proxyRepo.Update(s.ctx, p))

	_, err := s.service.Allocate(s.ctx, &dto.AllocateProxyRequest{
		ProxyID:      "proxy-1",
		PriceMonthly: decimal.NewFromInt(49),
	})
	s.Error(err)
	s.True(ierr.IsResourceUnavailable(err))
}

func (s *AllocationServiceSuite) TestReleaseAndReallocate() {
	s.seedProxy("proxy-1")
	first := s.allocate("proxy-1")

	released, err := s.service.Release(s.ctx, first.ID)
	s.NoError(err)
	s.Equal(types.AllocationStatusCancelled, released.Status)

	// the lease is cut short to the moment of release
	s.WithinDuration(time.Now().UTC(), released.EndsAt, time.Second)

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAvailable, p.Status)

	// the proxy is free again and can be leased by a new allocation
	second := s.allocate("proxy-1")
	s.NotEqual(first.ID, second.ID)
}

func (s *AllocationServiceSuite) TestReleaseNonActive() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	_, err := s.service.Release(s.ctx, resp.ID)
	s.NoError(err)

	// a released lease is no longer there to release
	_, err = s.service.Release(s.ctx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *AllocationServiceSuite) TestAllocateOverLapsedLease() {
	s.seedProxy("proxy-1")
	first := s.allocate("proxy-1")

	// lapse the lease without the reaper having run
	a, err := s.stores.allocationRepo.Get(s.ctx, first.ID)
	s.NoError(err)
	a.EndsAt = time.Now().UTC().AddDate(0, 0, -10)
	s.NoError(s.stores.allocationRepo.Update(s.ctx, a))

	second := s.allocate("proxy-1")
	s.NotEqual(first.ID, second.ID)
	s.Equal(types.AllocationStatusActive, second.Status)

	// the lapsed lease was expired on the way in
	a, err = s.stores.allocationRepo.Get(s.ctx, first.ID)
	s.NoError(err)
	s.Equal(types.AllocationStatusExpired, a.Status)
}

func (s *AllocationServiceSuite) TestReleaseForeignAllocation() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	otherCtx := context.WithValue(context.Background(), types.CtxTenantID, "tenant-other")
	_, err := s.service.Release(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *AllocationServiceSuite) TestRenewActiveAllocation() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	renewed, err := s.service.Renew(s.ctx, resp.ID, &dto.RenewAllocationRequest{Days: 10})
	s.NoError(err)
	s.Equal(types.AllocationStatusActive, renewed.Status)
	s.WithinDuration(time.Now().UTC().AddDate(0, 0, 10), renewed.EndsAt, time.Second)
}

func (s *AllocationServiceSuite) TestRenewReactivatesLapsedLease() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	// force the lease past its end and expire it
	a, err := s.stores.allocationRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	a.EndsAt = time.Now().UTC().Add(-time.Hour)
	a.Status = types.AllocationStatusExpired
	s.NoError(s.stores.allocationRepo.Update(s.ctx, a))

	renewed, err := s.service.Renew(s.ctx, resp.ID, nil)
	s.NoError(err)
	s.Equal(types.AllocationStatusActive, renewed.Status)
	s.True(renewed.EndsAt.After(time.Now().UTC()))

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAllocated, p.Status)
}

func (s *AllocationServiceSuite) TestRenewBlockedWhenProxyReallocated() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	// lapse the first lease, then let another tenant take the proxy
	a, err := s.stores.allocationRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	a.EndsAt = time.Now().UTC().Add(-time.Hour)
	a.Status = types.AllocationStatusExpired
	s.NoError(s.stores.allocationRepo.Update(s.ctx, a))

	other := &allocation.Allocation{
		ID:           "alloc-other",
		TenantID:     "tenant-other",
		ProxyID:      "proxy-1",
		StartsAt:     time.Now().UTC(),
		EndsAt:       time.Now().UTC().AddDate(0, 0, 30),
		Status:       types.AllocationStatusActive,
		PriceMonthly: decimal.NewFromInt(49),
		BaseModel:    types.GetDefaultBaseModel(),
	}
	s.NoError(s.stores.allocationRepo.Create(s.ctx, other))

	_, err = s.service.Renew(s.ctx, resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsResourceUnavailable(err))
}

func (s *AllocationServiceSuite) TestListActive() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	active, err := s.service.ListActive(s.ctx)
	s.NoError(err)
	s.Len(active, 1)
	s.Equal(resp.ID, active[0].ID)
	s.NotNil(active[0].Proxy)
	s.Equal("proxy-1", active[0].Proxy.ID)
}

func (s *AllocationServiceSuite) TestListHistoryByProxy() {
	s.seedProxy("proxy-1")
	s.seedProxy("proxy-2")

	first := s.allocate("proxy-1")
	_, err := s.service.Release(s.ctx, first.ID)
	s.NoError(err)
	second := s.allocate("proxy-1")
	s.allocate("proxy-2")

	history, err := s.service.ListHistory(s.ctx, "proxy-1")
	s.NoError(err)
	s.Len(history, 2)

	all, err := s.service.ListHistory(s.ctx, "")
	s.NoError(err)
	s.Len(all, 3)
	s.Equal(second.ProxyID, "proxy-1")
}

func (s *AllocationServiceSuite) TestExpireDue() {
	s.seedProxy("proxy-1")
	resp := s.allocate("proxy-1")

	a, err := s.stores.allocationRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	a.EndsAt = time.Now().UTC().Add(-time.Minute)
	s.NoError(s.stores.allocationRepo.Update(s.ctx, a))

	expired, err := s.service.ExpireDue(s.ctx, time.Now().UTC())
	s.NoError(err)
	s.Equal(1, expired)

	a, err = s.stores.allocationRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.AllocationStatusExpired, a.Status)

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAvailable, p.Status)

	// replaying the sweep finds nothing left to do
	expired, err = s.service.ExpireDue(s.ctx, time.Now().UTC())
	s.NoError(err)
	s.Equal(0, expired)
}
