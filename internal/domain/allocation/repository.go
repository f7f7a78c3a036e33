package allocation

import (
	"context"
	"time"
)

// Repository defines the interface for allocation persistence operations.
// Create must fail with ErrResourceUnavailable when another live allocation
// already holds the proxy; the store-level uniqueness guard is authoritative,
// not the caller's availability pre-check.
type Repository interface {
	Create(ctx context.Context, a *Allocation) error
	Get(ctx context.Context, id string) (*Allocation, error)
	Update(ctx context.Context, a *Allocation) error

	// FindLiveByProxy returns the allocation holding the proxy at now,
	// or nil when the proxy is free.
	FindLiveByProxy(ctx context.Context, proxyID string, now time.Time) (*Allocation, error)

	// FindActiveByProxy returns the proxy's active allocation regardless of
	// whether the lease has lapsed, or nil when there is none. The status
	// column alone backs the one-active-per-proxy guard, so a lapsed lease
	// still occupies the slot until something expires it.
	FindActiveByProxy(ctx context.Context, proxyID string) (*Allocation, error)

	// ListActiveByTenant returns active allocations with ends_at > now,
	// most recent first.
	ListActiveByTenant(ctx context.Context, tenantID string, now time.Time) ([]*Allocation, error)

	// ListActiveBySubscription returns the active allocations funded by the
	// subscription, in creation order.
	ListActiveBySubscription(ctx context.Context, subscriptionID string) ([]*Allocation, error)

	// ListExpiredActive returns active allocations whose lease has lapsed
	// (ends_at < now).
	ListExpiredActive(ctx context.Context, now time.Time) ([]*Allocation, error)

	// History queries, most recent first.
	ListByTenant(ctx context.Context, tenantID string) ([]*Allocation, error)
	ListByProxy(ctx context.Context, proxyID string) ([]*Allocation, error)
}
