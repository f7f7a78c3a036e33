package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type InvoiceServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewInvoiceService(s.params)
}

func (s *InvoiceServiceSuite) create() *dto.InvoiceResponse {
	resp, err := s.service.CreateInvoice(s.ctx, &dto.CreateInvoiceRequest{
		Amount:        decimal.NewFromInt(49),
		Currency:      "usd",
		PaymentMethod: types.PaymentMethodWallet,
	})
	s.NoError(err)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp := s.create()
	s.Equal(types.InvoiceStatusPending, resp.Status)
	s.Equal(types.DefaultTenantID, resp.TenantID)

	// INV-<date>-U<tenant part>-<suffix>
	s.True(strings.HasPrefix(resp.InvoiceNumber, "INV-"))
	parts := strings.Split(resp.InvoiceNumber, "-")
	s.Len(parts, 4)
	s.Equal(time.Now().UTC().Format("20060102"), parts[1])
	s.True(strings.HasPrefix(parts[2], "U"))
}

func (s *InvoiceServiceSuite) TestInvoiceNumbersAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp := s.create()
		s.False(seen[resp.InvoiceNumber], "duplicate invoice number %s", resp.InvoiceNumber)
		seen[resp.InvoiceNumber] = true
	}
}

func (s *InvoiceServiceSuite) TestGetByNumber() {
	resp := s.create()

	got, err := s.service.GetByNumber(s.ctx, resp.InvoiceNumber)
	s.NoError(err)
	s.Equal(resp.ID, got.ID)
}

func (s *InvoiceServiceSuite) TestMarkPaid() {
	resp := s.create()

	paid, err := s.service.MarkPaid(s.ctx, resp.ID, &dto.MarkInvoicePaidRequest{
		PaymentProvider:  "stripe",
		PaymentReference: "pi_123",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.Status)
	s.NotNil(paid.PaidAt)
	s.Equal("pi_123", paid.PaymentReference)
}

func (s *InvoiceServiceSuite) TestMarkPaidTwice() {
	resp := s.create()

	_, err := s.service.MarkPaid(s.ctx, resp.ID, nil)
	s.NoError(err)

	_, err = s.service.MarkPaid(s.ctx, resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestCancelMergesReason() {
	resp, err := s.service.CreateInvoice(s.ctx, &dto.CreateInvoiceRequest{
		Amount:        decimal.NewFromInt(49),
		Currency:      "usd",
		PaymentMethod: types.PaymentMethodWallet,
		Metadata:      types.Metadata{"plan": "monthly"},
	})
	s.NoError(err)

	cancelled, err := s.service.Cancel(s.ctx, resp.ID, &dto.CancelInvoiceRequest{
		Reason: "customer request",
	})
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, cancelled.Status)
	s.Equal("customer request", cancelled.Metadata["cancellation_reason"])

	// existing metadata keys survive the merge
	s.Equal("monthly", cancelled.Metadata["plan"])
}

func (s *InvoiceServiceSuite) TestCancelPaidInvoice() {
	resp := s.create()
	_, err := s.service.MarkPaid(s.ctx, resp.ID, nil)
	s.NoError(err)

	_, err = s.service.Cancel(s.ctx, resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestRetryClearsSettlementTraces() {
	resp := s.create()
	_, err := s.service.Cancel(s.ctx, resp.ID, nil)
	s.NoError(err)

	retried, err := s.service.Retry(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, retried.Status)
	s.Nil(retried.PaidAt)
	s.Empty(retried.PaymentReference)
}

func (s *InvoiceServiceSuite) TestRetryFailedInvoice() {
	resp := s.create()
	_, err := s.service.MarkFailed(s.ctx, resp.ID)
	s.NoError(err)

	retried, err := s.service.Retry(s.ctx, resp.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, retried.Status)
}

func (s *InvoiceServiceSuite) TestRetryPendingInvoice() {
	resp := s.create()

	_, err := s.service.Retry(s.ctx, resp.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestSummary() {
	paid := s.create()
	_, err := s.service.MarkPaid(s.ctx, paid.ID, nil)
	s.NoError(err)

	s.create() // stays pending

	cancelled := s.create()
	_, err = s.service.Cancel(s.ctx, cancelled.ID, nil)
	s.NoError(err)

	summary, err := s.service.Summary(s.ctx)
	s.NoError(err)
	s.Equal(3, summary.InvoiceCount)
	s.Equal(1, summary.PaidInvoiceCount)
	s.Equal(1, summary.PendingInvoiceCount)
	s.Equal("49", summary.TotalPaid.String())
	s.Equal("49", summary.TotalPending.String())
	s.Equal("49", summary.TotalCancelled.String())
	s.Equal("49", summary.PaidThisMonth.String())
}

func (s *InvoiceServiceSuite) TestGetForeignInvoice() {
	resp := s.create()

	otherCtx := context.WithValue(context.Background(), types.CtxTenantID, "tenant-other")
	_, err := s.service.GetInvoice(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestArchiveSettledBefore() {
	old := s.create()
	_, err := s.service.MarkPaid(s.ctx, old.ID, nil)
	s.NoError(err)

	// age the settled invoice past the cutoff
	inv, err := s.stores.invoiceRepo.Get(s.ctx, old.ID)
	s.NoError(err)
	inv.CreatedAt = time.Now().UTC().AddDate(-2, 0, 0)
	s.NoError(s.stores.invoiceRepo.Update(s.ctx, inv))

	s.create() // recent pending invoice is untouched

	archived, err := s.service.ArchiveSettledBefore(s.ctx, time.Now().UTC().AddDate(-1, 0, 0))
	s.NoError(err)
	s.Equal(1, archived)

	_, err = s.service.GetInvoice(s.ctx, old.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	remaining, err := s.service.ListInvoices(s.ctx)
	s.NoError(err)
	s.Len(remaining, 1)
}
