package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type LedgerServiceSuite struct {
	suite.Suite
	ctx     context.Context
	params  ServiceParams
	stores  *testStores
	service LedgerService
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewLedgerService(s.params)
}

func (s *LedgerServiceSuite) topup(amount int64) *dto.LedgerEntryResponse {
	resp, err := s.service.Topup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.NewFromInt(amount),
		Currency: "usd",
	})
	s.NoError(err)
	return resp
}

func (s *LedgerServiceSuite) balance() decimal.Decimal {
	resp, err := s.service.Balance(s.ctx)
	s.NoError(err)
	return resp.Balance
}

func (s *LedgerServiceSuite) TestTopupRejectsBadCurrency() {
	_, err := s.service.Topup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "dollars",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceSuite) TestBalanceEmptyWallet() {
	s.True(s.balance().IsZero())
}

func (s *LedgerServiceSuite) TestTopupAndDebit() {
	s.topup(100)

	debit, err := s.service.Debit(s.ctx, &dto.DebitWalletRequest{
		Amount:   decimal.NewFromInt(49),
		Currency: "usd",
	})
	s.NoError(err)
	s.Equal(types.TransactionTypeDebit, debit.Type)
	s.Equal(types.TransactionStatusCompleted, debit.Status)

	s.Equal("51.00", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestDebitAllowNegative() {
	s.topup(10)

	_, err := s.service.Debit(s.ctx, &dto.DebitWalletRequest{
		Amount:        decimal.NewFromInt(25),
		Currency:      "usd",
		AllowNegative: true,
	})
	s.NoError(err)
	s.Equal("-15.00", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestDebitInsufficientFunds() {
	s.topup(100)

	_, err := s.service.Debit(s.ctx, &dto.DebitWalletRequest{
		Amount:   decimal.NewFromInt(49),
		Currency: "usd",
	})
	s.NoError(err)

	// the second debit exceeds the remaining 51 and must not change the
	// ledger
	_, err = s.service.Debit(s.ctx, &dto.DebitWalletRequest{
		Amount:   decimal.NewFromInt(60),
		Currency: "usd",
	})
	s.Error(err)
	s.True(ierr.IsInsufficientFunds(err))
	s.Equal("51.00", s.balance().StringFixed(2))

	entries, err := s.service.History(s.ctx)
	s.NoError(err)
	s.Len(entries, 2)
}

func (s *LedgerServiceSuite) TestDebitEmptyWallet() {
	_, err := s.service.Debit(s.ctx, &dto.DebitWalletRequest{
		Amount:   decimal.NewFromInt(1),
		Currency: "usd",
	})
	s.Error(err)
	s.True(ierr.IsInsufficientFunds(err))
}

func (s *LedgerServiceSuite) TestTopupRejectsNonPositiveAmount() {
	_, err := s.service.Topup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.Zero,
		Currency: "usd",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceSuite) TestPendingTopupDoesNotCount() {
	resp, err := s.service.CreatePendingTopup(s.ctx, &dto.TopupWalletRequest{
		Amount:          decimal.NewFromInt(25),
		Currency:        "usd",
		PaymentProvider: "stripe",
	})
	s.NoError(err)
	s.Equal(types.TransactionStatusPending, resp.Status)
	s.True(s.balance().IsZero())
}

func (s *LedgerServiceSuite) TestConfirmTopup() {
	pending, err := s.service.CreatePendingTopup(s.ctx, &dto.TopupWalletRequest{
		Amount:          decimal.NewFromInt(25),
		Currency:        "usd",
		PaymentProvider: "stripe",
	})
	s.NoError(err)

	confirmed, err := s.service.ConfirmTopup(s.ctx, &dto.ConfirmTopupRequest{
		EntryID:          pending.ID,
		PaymentReference: "pi_123",
	})
	s.NoError(err)
	s.Equal(types.TransactionStatusCompleted, confirmed.Status)
	s.Equal("pi_123", confirmed.PaymentReference)
	s.Equal("25.00", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestConfirmTopupReplayIsNoop() {
	pending, err := s.service.CreatePendingTopup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.NewFromInt(25),
		Currency: "usd",
	})
	s.NoError(err)

	req := &dto.ConfirmTopupRequest{EntryID: pending.ID, PaymentReference: "pi_123"}
	_, err = s.service.ConfirmTopup(s.ctx, req)
	s.NoError(err)

	// a webhook replay with the same reference settles nothing twice
	_, err = s.service.ConfirmTopup(s.ctx, req)
	s.NoError(err)
	s.Equal("25.00", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestConfirmTopupDifferentReference() {
	pending, err := s.service.CreatePendingTopup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.NewFromInt(25),
		Currency: "usd",
	})
	s.NoError(err)

	_, err = s.service.ConfirmTopup(s.ctx, &dto.ConfirmTopupRequest{
		EntryID:          pending.ID,
		PaymentReference: "pi_123",
	})
	s.NoError(err)

	_, err = s.service.ConfirmTopup(s.ctx, &dto.ConfirmTopupRequest{
		EntryID:          pending.ID,
		PaymentReference: "pi_456",
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *LedgerServiceSuite) TestRefundAppendsEntry() {
	s.topup(100)
	s.Equal("100.00", s.balance().StringFixed(2))

	refund, err := s.service.Refund(s.ctx, &dto.RefundRequest{
		Amount:           decimal.NewFromInt(100),
		Currency:         "usd",
		PaymentReference: "re_123",
	})
	s.NoError(err)
	s.Equal(types.TransactionTypeCredit, refund.Type)
	s.Equal(types.TransactionStatusRefunded, refund.Status)

	// the refund is a new audit entry; the original credit is untouched
	// and the derived balance does not move
	entries, err := s.service.History(s.ctx)
	s.NoError(err)
	s.Len(entries, 2)
	s.Equal("100.00", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestRefundRejectsNonPositiveAmount() {
	_, err := s.service.Refund(s.ctx, &dto.RefundRequest{
		Amount:   decimal.Zero,
		Currency: "usd",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *LedgerServiceSuite) TestBalanceIsRounded() {
	_, err := s.service.Topup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.RequireFromString("10.555"),
		Currency: "usd",
	})
	s.NoError(err)
	s.Equal("10.56", s.balance().StringFixed(2))
}

func (s *LedgerServiceSuite) TestHistoryScopedToTenant() {
	s.topup(100)

	otherCtx := context.WithValue(context.Background(), types.CtxTenantID, "tenant-other")
	entries, err := s.service.History(otherCtx)
	s.NoError(err)
	s.Empty(entries)
}
