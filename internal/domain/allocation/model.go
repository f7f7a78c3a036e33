package allocation

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Allocation is a time-boxed exclusive lease of one proxy to one tenant over
// [StartsAt, EndsAt). SubscriptionID links the lease to the subscription
// funding it, if any; the allocation owns the reference, not the other way
// around.
type Allocation struct {
	ID             string                 `db:"id" json:"id"`
	TenantID       string                 `db:"tenant_id" json:"tenant_id"`
	ProxyID        string                 `db:"proxy_id" json:"proxy_id"`
	SubscriptionID string                 `db:"subscription_id" json:"subscription_id,omitempty"`
	StartsAt       time.Time              `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time              `db:"ends_at" json:"ends_at"`
	Status         types.AllocationStatus `db:"status" json:"status"`
	PriceMonthly   decimal.Decimal        `db:"price_monthly" json:"price_monthly"`

	types.BaseModel
}

func (a *Allocation) TableName() string {
	return "allocations"
}

// IsLive reports whether the lease holds the proxy at the given instant.
func (a *Allocation) IsLive(now time.Time) bool {
	return a.Status == types.AllocationStatusActive && a.EndsAt.After(now)
}

func (a *Allocation) Validate() error {
	if a.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			Mark(ierr.ErrValidation)
	}
	if a.ProxyID == "" {
		return ierr.NewError("proxy_id is required").
			Mark(ierr.ErrValidation)
	}
	if a.PriceMonthly.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("price_monthly must be positive").
			WithHint("Monthly price must be greater than zero").
			WithReportableDetails(map[string]any{
				"price_monthly": a.PriceMonthly,
			}).
			Mark(ierr.ErrValidation)
	}
	if !a.EndsAt.After(a.StartsAt) {
		return ierr.NewError("ends_at must be after starts_at").
			Mark(ierr.ErrValidation)
	}
	return nil
}
