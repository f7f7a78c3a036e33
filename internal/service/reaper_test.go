package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/domain/allocation"
	"github.com/proxynest/proxynest/internal/domain/invoice"
	"github.com/proxynest/proxynest/internal/domain/proxy"
	"github.com/proxynest/proxynest/internal/domain/usage"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type ReaperServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service ReaperService
}

func TestReaperService(t *testing.T) {
	suite.Run(t, new(ReaperServiceSuite))
}

func (s *ReaperServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewReaperService(s.params)
}

func (s *ReaperServiceSuite) TestRunAll() {
	now := time.Now().UTC()

	// a lapsed allocation holding a proxy
	p := &proxy.Proxy{
		ID:        "proxy-1",
		Label:     "dongle-1",
		IPAddress: "10.0.0.1",
		Port:      8080,
		Status:    types.ProxyStatusAllocated,
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.NoError(s.stores.proxyRepo.Create(s.ctx, p))
	s.NoError(s.stores.allocationRepo.Create(s.ctx, &allocation.Allocation{
		ID:           "alloc-1",
		TenantID:     types.DefaultTenantID,
		ProxyID:      "proxy-1",
		StartsAt:     now.AddDate(0, 0, -31),
		EndsAt:       now.Add(-time.Hour),
		Status:       types.AllocationStatusActive,
		PriceMonthly: decimal.NewFromInt(49),
		BaseModel:    types.GetDefaultBaseModel(),
	}))

	// usage samples past the 90 day retention window
	s.NoError(s.stores.usageRepo.Insert(s.ctx, &usage.Sample{
		ID:        "usage-old",
		ProxyID:   "proxy-1",
		TenantID:  types.DefaultTenantID,
		Timestamp: now.AddDate(0, 0, -120),
		BytesIn:   100,
	}))
	s.NoError(s.stores.usageRepo.Insert(s.ctx, &usage.Sample{
		ID:        "usage-recent",
		ProxyID:   "proxy-1",
		TenantID:  types.DefaultTenantID,
		Timestamp: now.Add(-time.Hour),
		BytesIn:   100,
	}))

	// a settled invoice past the archival window
	paidAt := now.AddDate(-2, 0, 0)
	oldInvoice := &invoice.Invoice{
		ID:            "inv-old",
		TenantID:      types.DefaultTenantID,
		InvoiceNumber: "INV-OLD-1",
		Amount:        decimal.NewFromInt(49),
		Currency:      "usd",
		Status:        types.InvoiceStatusPaid,
		PaymentMethod: types.PaymentMethodWallet,
		PaidAt:        &paidAt,
	}
	oldInvoice.CreatedAt = paidAt
	oldInvoice.UpdatedAt = paidAt
	s.NoError(s.stores.invoiceRepo.Create(s.ctx, oldInvoice))

	result, err := s.service.RunAll(s.ctx, now)
	s.NoError(err)
	s.Equal(1, result.AllocationsExpired)
	s.Equal(1, result.UsageSamplesPurged)
	s.Equal(1, result.InvoicesArchived)

	// the proxy is back in the pool
	got, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAvailable, got.Status)

	// replaying the cycle is a no-op
	result, err = s.service.RunAll(s.ctx, now)
	s.NoError(err)
	s.Equal(0, result.AllocationsExpired)
	s.Equal(0, result.UsageSamplesPurged)
	s.Equal(0, result.InvoicesArchived)
}

func (s *ReaperServiceSuite) TestSweepsOnEmptyStores() {
	result, err := s.service.RunAll(s.ctx, time.Now().UTC())
	s.NoError(err)
	s.Equal(0, result.AllocationsExpired)
	s.Equal(0, result.UsageSamplesPurged)
	s.Equal(0, result.InvoicesArchived)
}
