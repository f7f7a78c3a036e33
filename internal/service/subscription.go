package service

import (
	"context"
	"time"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/allocation"
	"github.com/proxynest/proxynest/internal/domain/invoice"
	"github.com/proxynest/proxynest/internal/domain/subscription"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// SubscriptionService manages recurring proxy subscriptions. The subscribe
// flow is one transaction: the subscription, the first-month wallet debit,
// its invoice and the opening allocation all land together or not at all.
type SubscriptionService interface {
	SubscribeToProxy(ctx context.Context, req *dto.SubscribeToProxyRequest) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context) ([]*dto.SubscriptionResponse, error)

	// ActivateSubscription flips a provider-backed subscription from
	// incomplete to active once the provider confirms the first payment.
	ActivateSubscription(ctx context.Context, id string, providerSubscriptionID string) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) SubscribeToProxy(ctx context.Context, req *dto.SubscribeToProxyRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	now := time.Now().UTC()

	var (
		sub *subscription.Subscription
		a   *allocation.Allocation
		inv *invoice.Invoice
	)
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.ProxyRepo.Get(ctx, req.ProxyID)
		if err != nil {
			return err
		}
		if p.Status == types.ProxyStatusMaintenance || p.Status == types.ProxyStatusDisabled {
			return ierr.NewError("proxy is out of rotation").
				WithHintf("proxy is %s and cannot be subscribed to", p.Status).
				Mark(ierr.ErrResourceUnavailable)
		}
		live, err := s.AllocationRepo.FindLiveByProxy(ctx, req.ProxyID, now)
		if err != nil {
			return err
		}
		if live != nil {
			return ierr.NewError("proxy is already allocated").
				WithReportableDetails(map[string]any{
					"proxy_id": req.ProxyID,
				}).
				Mark(ierr.ErrResourceUnavailable)
		}

		sub = req.ToSubscription(tenantID, now)

		if req.PaymentMethod == types.PaymentMethodWallet {
			if err := s.LedgerRepo.LockTenant(ctx, tenantID); err != nil {
				return err
			}

			ledgerSvc := &ledgerService{ServiceParams: s.ServiceParams}
			entry, err := ledgerSvc.debitForAmount(ctx, tenantID, req.AmountMonthly, req.Currency, types.Metadata{
				"subscription_id": sub.ID,
				"proxy_id":        req.ProxyID,
				"reason":          "subscription_first_month",
			})
			if err != nil {
				return err
			}

			sub.Status = types.SubscriptionStatusActive
			if err := sub.Validate(); err != nil {
				return err
			}
			if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
				return err
			}

			inv = &invoice.Invoice{
				ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
				TenantID:       tenantID,
				SubscriptionID: sub.ID,
				Amount:         req.AmountMonthly,
				Currency:       req.Currency,
				Status:         types.InvoiceStatusPaid,
				PaymentMethod:  types.PaymentMethodWallet,
				LedgerEntryID:  entry.ID,
				PaidAt:         &now,
				BaseModel:      types.GetDefaultBaseModel(),
			}
			invoiceSvc := &invoiceService{ServiceParams: s.ServiceParams}
			if err := invoiceSvc.createWithNumber(ctx, inv); err != nil {
				return err
			}
		} else {
			if err := sub.Validate(); err != nil {
				return err
			}
			if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
				return err
			}
		}

		a = &allocation.Allocation{
			ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALLOCATION),
			TenantID:       tenantID,
			ProxyID:        req.ProxyID,
			SubscriptionID: sub.ID,
			StartsAt:       now,
			EndsAt:         now.AddDate(0, 0, types.DefaultAllocationDays),
			Status:         types.AllocationStatusActive,
			PriceMonthly:   req.AmountMonthly,
			BaseModel:      types.GetDefaultBaseModel(),
		}
		if err := s.AllocationRepo.Create(ctx, a); err != nil {
			return err
		}
		return s.ProxyRepo.UpdateStatus(ctx, req.ProxyID, types.ProxyStatusAllocated)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("opened subscription",
		"subscription_id", sub.ID,
		"proxy_id", req.ProxyID,
		"tenant_id", tenantID,
		"payment_method", req.PaymentMethod,
		"status", sub.Status)

	resp := dto.FromSubscription(sub)
	resp.Allocation = dto.FromAllocation(a)
	if inv != nil {
		resp.Invoice = dto.FromInvoice(inv)
	}
	return resp, nil
}

// CancelSubscription cancels either at the end of the current period or
// immediately. Period-end cancellation only marks the intent: when the
// subscription has no known period end, the marker stays unset and the
// subscription keeps running. Immediate cancellation is terminal: every
// allocation the subscription funds is expired with its lease cut short
// to now, and the proxies return to the pool.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if req == nil {
		req = &dto.CancelSubscriptionRequest{}
	}

	now := time.Now().UTC()

	var sub *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return ierr.NewError("subscription is already cancelled").
				WithReportableDetails(map[string]any{
					"subscription_id": sub.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		meta := types.Metadata{
			"cancellation_requested_at": now.Format(time.RFC3339),
		}
		if req.Reason != "" {
			meta["cancellation_reason"] = req.Reason
		}
		sub.Metadata = sub.Metadata.Merge(meta)

		if req.AtPeriodEnd {
			sub.CancelAt = sub.CurrentPeriodEnd
			return s.SubscriptionRepo.Update(ctx, sub)
		}

		sub.Status = types.SubscriptionStatusCanceled
		sub.CanceledAt = &now
		sub.CancelAt = nil
		if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
			return err
		}

		funded, err := s.AllocationRepo.ListActiveBySubscription(ctx, sub.ID)
		if err != nil {
			return err
		}
		for _, a := range funded {
			a.Status = types.AllocationStatusExpired
			a.EndsAt = now
			if err := s.AllocationRepo.Update(ctx, a); err != nil {
				return err
			}
			if err := s.ProxyRepo.UpdateStatus(ctx, a.ProxyID, types.ProxyStatusAvailable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled subscription",
		"subscription_id", sub.ID,
		"at_period_end", req.AtPeriodEnd)

	return dto.FromSubscription(sub), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.FromSubscription(sub)
	if funded, err := s.AllocationRepo.ListActiveBySubscription(ctx, sub.ID); err == nil && len(funded) > 0 {
		resp.Allocation = dto.FromAllocation(funded[0])
	}
	return resp, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.SubscriptionRepo.ListByTenant(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		result = append(result, dto.FromSubscription(sub))
	}
	return result, nil
}

func (s *subscriptionService) ActivateSubscription(ctx context.Context, id string, providerSubscriptionID string) (*dto.SubscriptionResponse, error) {
	var sub *subscription.Subscription
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sub, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if sub.Status != types.SubscriptionStatusIncomplete {
			return ierr.NewError("subscription is not awaiting activation").
				WithHintf("status is %s", sub.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		sub.Status = types.SubscriptionStatusActive
		sub.ProviderSubscriptionID = providerSubscriptionID
		return s.SubscriptionRepo.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("activated subscription",
		"subscription_id", sub.ID,
		"provider_subscription_id", providerSubscriptionID)

	return dto.FromSubscription(sub), nil
}

func (s *subscriptionService) getOwned(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]any{
				"subscription_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}
