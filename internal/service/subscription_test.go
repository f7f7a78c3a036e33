package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/proxy"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/testutil"
	"github.com/proxynest/proxynest/internal/types"
)

type SubscriptionServiceSuite struct {
	suite.Suite
	ctx       context.Context
	params    ServiceParams
	stores    *testStores
	service   SubscriptionService
	ledgerSvc LedgerService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.ctx = testutil.SetupContext()
	s.params, s.stores = newTestServiceParams(s.T())
	s.service = NewSubscriptionService(s.params)
	s.ledgerSvc = NewLedgerService(s.params)
}

func (s *SubscriptionServiceSuite) seedProxy(id string) {
	p := &proxy.Proxy{
		ID:        id,
		Label:     "dongle-" + id,
		IPAddress: "10.0.0.1",
		Port:      8080,
		Status:    types.ProxyStatusAvailable,
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.NoError(s.stores.proxyRepo.Create(s.ctx, p))
}

func (s *SubscriptionServiceSuite) fundWallet(amount int64) {
	_, err := s.ledgerSvc.Topup(s.ctx, &dto.TopupWalletRequest{
		Amount:   decimal.NewFromInt(amount),
		Currency: "usd",
	})
	s.NoError(err)
}

func (s *SubscriptionServiceSuite) subscribeWallet() *dto.SubscriptionResponse {
	resp, err := s.service.SubscribeToProxy(s.ctx, &dto.SubscribeToProxyRequest{
		ProxyID:       "proxy-1",
		PaymentMethod: types.PaymentMethodWallet,
		AmountMonthly: decimal.NewFromInt(49),
		Currency:      "usd",
	})
	s.NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestSubscribeWithWallet() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)

	resp := s.subscribeWallet()
	s.Equal(types.SubscriptionStatusActive, resp.Status)
	s.Equal(types.PaymentMethodWallet, resp.PaymentMethod)

	// first month is debited immediately
	balance, err := s.ledgerSvc.Balance(s.ctx)
	s.NoError(err)
	s.Equal("51.00", balance.Balance.StringFixed(2))

	// the opening allocation is created and bound to the subscription
	s.NotNil(resp.Allocation)
	s.Equal(resp.ID, resp.Allocation.SubscriptionID)
	s.Equal(types.AllocationStatusActive, resp.Allocation.Status)

	// a paid invoice links the subscription to the debit entry
	s.NotNil(resp.Invoice)
	s.Equal(types.InvoiceStatusPaid, resp.Invoice.Status)
	s.NotEmpty(resp.Invoice.LedgerEntryID)
	s.NotNil(resp.Invoice.PaidAt)

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAllocated, p.Status)
}

func (s *SubscriptionServiceSuite) TestSubscribeWalletInsufficientFunds() {
	s.seedProxy("proxy-1")
	s.fundWallet(10)

	_, err := s.service.SubscribeToProxy(s.ctx, &dto.SubscribeToProxyRequest{
		ProxyID:       "proxy-1",
		PaymentMethod: types.PaymentMethodWallet,
		AmountMonthly: decimal.NewFromInt(49),
		Currency:      "usd",
	})
	s.Error(err)
	s.True(ierr.IsInsufficientFunds(err))

	// nothing was committed
	subs, err := s.service.ListSubscriptions(s.ctx)
	s.NoError(err)
	s.Empty(subs)

	balance, err := s.ledgerSvc.Balance(s.ctx)
	s.NoError(err)
	s.Equal("10.00", balance.Balance.StringFixed(2))
}

func (s *SubscriptionServiceSuite) TestSubscribeWithProvider() {
	s.seedProxy("proxy-1")

	resp, err := s.service.SubscribeToProxy(s.ctx, &dto.SubscribeToProxyRequest{
		ProxyID:       "proxy-1",
		PaymentMethod: types.PaymentMethodStripe,
		AmountMonthly: decimal.NewFromInt(49),
		Currency:      "usd",
	})
	s.NoError(err)

	// provider-backed subscriptions wait for confirmation
	s.Equal(types.SubscriptionStatusIncomplete, resp.Status)
	s.Nil(resp.Invoice)
	s.NotNil(resp.Allocation)
}

func (s *SubscriptionServiceSuite) TestActivateSubscription() {
	s.seedProxy("proxy-1")

	resp, err := s.service.SubscribeToProxy(s.ctx, &dto.SubscribeToProxyRequest{
		ProxyID:       "proxy-1",
		PaymentMethod: types.PaymentMethodStripe,
		AmountMonthly: decimal.NewFromInt(49),
		Currency:      "usd",
	})
	s.NoError(err)

	activated, err := s.service.ActivateSubscription(s.ctx, resp.ID, "sub_stripe_1")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, activated.Status)
	s.Equal("sub_stripe_1", activated.ProviderSubscriptionID)

	_, err = s.service.ActivateSubscription(s.ctx, resp.ID, "sub_stripe_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestSubscribeHeldProxy() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	s.subscribeWallet()

	_, err := s.service.SubscribeToProxy(s.ctx, &dto.SubscribeToProxyRequest{
		ProxyID:       "proxy-1",
		PaymentMethod: types.PaymentMethodWallet,
		AmountMonthly: decimal.NewFromInt(49),
		Currency:      "usd",
	})
	s.Error(err)
	s.True(ierr.IsResourceUnavailable(err))
}

func (s *SubscriptionServiceSuite) TestCancelAtPeriodEnd() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	cancelled, err := s.service.CancelSubscription(s.ctx, resp.ID, &dto.CancelSubscriptionRequest{
		AtPeriodEnd: true,
		Reason:      "no longer needed",
	})
	s.NoError(err)

	// the subscription keeps running until the period boundary
	s.Equal(types.SubscriptionStatusActive, cancelled.Status)
	s.Nil(cancelled.CanceledAt)
	s.NotNil(cancelled.CancelAt)
	s.Equal(*resp.CurrentPeriodEnd, *cancelled.CancelAt)
	s.Equal("no longer needed", cancelled.Metadata["cancellation_reason"])

	// the allocation is untouched
	allocs, err := s.stores.allocationRepo.ListActiveBySubscription(s.ctx, resp.ID)
	s.NoError(err)
	s.Len(allocs, 1)
}

func (s *SubscriptionServiceSuite) TestCancelAtPeriodEndWithoutKnownPeriod() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	// simulate a provider-managed subscription with no known period end
	sub, err := s.stores.subscriptionRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	sub.CurrentPeriodEnd = nil
	s.NoError(s.stores.subscriptionRepo.Update(s.ctx, sub))

	cancelled, err := s.service.CancelSubscription(s.ctx, resp.ID, &dto.CancelSubscriptionRequest{
		AtPeriodEnd: true,
	})
	s.NoError(err)
	s.Nil(cancelled.CancelAt)
	s.Equal(types.SubscriptionStatusActive, cancelled.Status)
}

func (s *SubscriptionServiceSuite) TestCancelImmediately() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	cancelled, err := s.service.CancelSubscription(s.ctx, resp.ID, &dto.CancelSubscriptionRequest{})
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, cancelled.Status)
	s.NotNil(cancelled.CanceledAt)
	s.Nil(cancelled.CancelAt)

	// the funded allocation is expired with its lease cut short to now,
	// and the proxy returns to the pool
	allocs, err := s.stores.allocationRepo.ListActiveBySubscription(s.ctx, resp.ID)
	s.NoError(err)
	s.Empty(allocs)

	history, err := s.stores.allocationRepo.ListByTenant(s.ctx, types.DefaultTenantID)
	s.NoError(err)
	s.Len(history, 1)
	s.Equal(types.AllocationStatusExpired, history[0].Status)
	s.WithinDuration(time.Now().UTC(), history[0].EndsAt, time.Second)

	p, err := s.stores.proxyRepo.Get(s.ctx, "proxy-1")
	s.NoError(err)
	s.Equal(types.ProxyStatusAvailable, p.Status)
}

func (s *SubscriptionServiceSuite) TestCancelTwice() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	_, err := s.service.CancelSubscription(s.ctx, resp.ID, nil)
	s.NoError(err)

	_, err = s.service.CancelSubscription(s.ctx, resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCancelForeignSubscription() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	otherCtx := context.WithValue(context.Background(), types.CtxTenantID, "tenant-other")
	_, err := s.service.CancelSubscription(otherCtx, resp.ID, nil)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestCancelAtKnownInstant() {
	s.seedProxy("proxy-1")
	s.fundWallet(100)
	resp := s.subscribeWallet()

	periodEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sub, err := s.stores.subscriptionRepo.Get(s.ctx, resp.ID)
	s.NoError(err)
	sub.CurrentPeriodEnd = &periodEnd
	s.NoError(s.stores.subscriptionRepo.Update(s.ctx, sub))

	cancelled, err := s.service.CancelSubscription(s.ctx, resp.ID, &dto.CancelSubscriptionRequest{
		AtPeriodEnd: true,
	})
	s.NoError(err)
	s.NotNil(cancelled.CancelAt)
	s.True(cancelled.CancelAt.Equal(periodEnd))
}
