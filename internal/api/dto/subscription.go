package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/subscription"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// SubscribeToProxyRequest represents the request to start a recurring
// subscription against one proxy. Wallet subscriptions activate and charge
// the first month immediately; provider-backed ones start incomplete until
// the provider confirms.
type SubscribeToProxyRequest struct {
	ProxyID       string              `json:"proxy_id" binding:"required"`
	PaymentMethod types.PaymentMethod `json:"payment_method" binding:"required"`
	AmountMonthly decimal.Decimal     `json:"amount_monthly"`
	Currency      string              `json:"currency" binding:"required,len=3"`
	Metadata      types.Metadata      `json:"metadata,omitempty"`
}

func (r *SubscribeToProxyRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.AmountMonthly.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("amount_monthly must be positive").
			WithReportableDetails(map[string]any{
				"amount_monthly": r.AmountMonthly,
			}).
			Mark(ierr.ErrValidation)
	}
	return r.PaymentMethod.Validate()
}

func (r *SubscribeToProxyRequest) ToSubscription(tenantID string, now time.Time) *subscription.Subscription {
	periodEnd := now.AddDate(0, 1, 0)
	return &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		TenantID:           tenantID,
		PaymentMethod:      r.PaymentMethod,
		Status:             types.SubscriptionStatusIncomplete,
		AmountMonthly:      r.AmountMonthly,
		Currency:           r.Currency,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
		Metadata:           r.Metadata,
		BaseModel:          types.GetDefaultBaseModel(),
	}
}

// CancelSubscriptionRequest cancels a subscription, either at the end of
// the current period or immediately.
type CancelSubscriptionRequest struct {
	AtPeriodEnd bool   `json:"at_period_end"`
	Reason      string `json:"reason,omitempty"`
}

// SubscriptionResponse represents a subscription in API responses
type SubscriptionResponse struct {
	ID                     string                   `json:"id"`
	TenantID               string                   `json:"tenant_id"`
	PaymentMethod          types.PaymentMethod      `json:"payment_method"`
	Status                 types.SubscriptionStatus `json:"status"`
	AmountMonthly          decimal.Decimal          `json:"amount_monthly"`
	Currency               string                   `json:"currency"`
	ProviderSubscriptionID string                   `json:"provider_subscription_id,omitempty"`
	CurrentPeriodStart     *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time               `json:"current_period_end,omitempty"`
	CancelAt               *time.Time               `json:"cancel_at,omitempty"`
	CanceledAt             *time.Time               `json:"canceled_at,omitempty"`
	Metadata               types.Metadata           `json:"metadata,omitempty"`
	CreatedAt              time.Time                `json:"created_at"`
	UpdatedAt              time.Time                `json:"updated_at"`

	// Allocation is the lease opened by the subscribe flow, populated on
	// subscribe responses and detail reads.
	Allocation *AllocationResponse `json:"allocation,omitempty"`

	// Invoice is the first-month invoice raised by a wallet subscribe.
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
}

func FromSubscription(s *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                     s.ID,
		TenantID:               s.TenantID,
		PaymentMethod:          s.PaymentMethod,
		Status:                 s.Status,
		AmountMonthly:          s.AmountMonthly,
		Currency:               s.Currency,
		ProviderSubscriptionID: s.ProviderSubscriptionID,
		CurrentPeriodStart:     s.CurrentPeriodStart,
		CurrentPeriodEnd:       s.CurrentPeriodEnd,
		CancelAt:               s.CancelAt,
		CanceledAt:             s.CanceledAt,
		Metadata:               s.Metadata,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
	}
}
