package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/allocation"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// AllocateProxyRequest represents the request to lease a proxy. Days
// defaults to the standard lease length when zero.
type AllocateProxyRequest struct {
	ProxyID        string          `json:"proxy_id" binding:"required"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	PriceMonthly   decimal.Decimal `json:"price_monthly"`
	Days           int             `json:"days,omitempty"`
}

func (r *AllocateProxyRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.PriceMonthly.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("price_monthly must be positive").
			Mark(ierr.ErrValidation)
	}
	if r.Days < 0 {
		return ierr.NewError("days must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *AllocateProxyRequest) ToAllocation(tenantID string, now time.Time) *allocation.Allocation {
	days := r.Days
	if days == 0 {
		days = types.DefaultAllocationDays
	}
	return &allocation.Allocation{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALLOCATION),
		TenantID:       tenantID,
		ProxyID:        r.ProxyID,
		SubscriptionID: r.SubscriptionID,
		StartsAt:       now,
		EndsAt:         now.AddDate(0, 0, days),
		Status:         types.AllocationStatusActive,
		PriceMonthly:   r.PriceMonthly,
		BaseModel:      types.GetDefaultBaseModel(),
	}
}

// RenewAllocationRequest extends a lease; Days defaults to the standard
// lease length when zero.
type RenewAllocationRequest struct {
	Days int `json:"days,omitempty"`
}

func (r *RenewAllocationRequest) Validate() error {
	if r.Days < 0 {
		return ierr.NewError("days must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AllocationResponse represents an allocation in API responses
type AllocationResponse struct {
	ID             string                 `json:"id"`
	TenantID       string                 `json:"tenant_id"`
	ProxyID        string                 `json:"proxy_id"`
	SubscriptionID string                 `json:"subscription_id,omitempty"`
	StartsAt       time.Time              `json:"starts_at"`
	EndsAt         time.Time              `json:"ends_at"`
	Status         types.AllocationStatus `json:"status"`
	PriceMonthly   decimal.Decimal        `json:"price_monthly"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`

	// Proxy is populated on reads that join the leased proxy in.
	Proxy *ProxyResponse `json:"proxy,omitempty"`
}

func FromAllocation(a *allocation.Allocation) *AllocationResponse {
	return &AllocationResponse{
		ID:             a.ID,
		TenantID:       a.TenantID,
		ProxyID:        a.ProxyID,
		SubscriptionID: a.SubscriptionID,
		StartsAt:       a.StartsAt,
		EndsAt:         a.EndsAt,
		Status:         a.Status,
		PriceMonthly:   a.PriceMonthly,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
