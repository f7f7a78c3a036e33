package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Subscription is a recurring commitment that may fund one or more
// allocations. CancelAt is the soft future-cancellation marker: the
// subscription stays active until that instant. CanceledAt is terminal.
type Subscription struct {
	ID                     string                   `db:"id" json:"id"`
	TenantID               string                   `db:"tenant_id" json:"tenant_id"`
	PaymentMethod          types.PaymentMethod      `db:"payment_method" json:"payment_method"`
	Status                 types.SubscriptionStatus `db:"status" json:"status"`
	AmountMonthly          decimal.Decimal          `db:"amount_monthly" json:"amount_monthly"`
	Currency               string                   `db:"currency" json:"currency"`
	ProviderSubscriptionID string                   `db:"provider_subscription_id" json:"provider_subscription_id,omitempty"`
	ProviderPriceID        string                   `db:"provider_price_id" json:"provider_price_id,omitempty"`
	CurrentPeriodStart     *time.Time               `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time               `db:"current_period_end" json:"current_period_end,omitempty"`
	CancelAt               *time.Time               `db:"cancel_at" json:"cancel_at,omitempty"`
	CanceledAt             *time.Time               `db:"canceled_at" json:"canceled_at,omitempty"`
	Metadata               types.Metadata           `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

func (s *Subscription) TableName() string {
	return "subscriptions"
}

// IsTerminal reports whether the subscription has been hard-cancelled.
func (s *Subscription) IsTerminal() bool {
	return s.CanceledAt != nil
}

func (s *Subscription) Validate() error {
	if s.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			Mark(ierr.ErrValidation)
	}
	if s.AmountMonthly.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("amount_monthly must be positive").
			WithHint("Recurring amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount_monthly": s.AmountMonthly,
			}).
			Mark(ierr.ErrValidation)
	}
	return s.PaymentMethod.Validate()
}
