package invoice

import (
	"context"
	"time"
)

// Repository defines the interface for invoice persistence operations.
// Create must fail with ErrAlreadyExists when the tenant already has a
// non-deleted invoice with the same number; the service re-rolls the number
// on collision.
type Repository interface {
	Create(ctx context.Context, i *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByNumber(ctx context.Context, tenantID, invoiceNumber string) (*Invoice, error)
	Update(ctx context.Context, i *Invoice) error
	Delete(ctx context.Context, id string) error

	// List returns the tenant's non-deleted invoices, newest first.
	List(ctx context.Context, tenantID string) ([]*Invoice, error)

	// ListBySubscription returns non-deleted invoices tied to a subscription.
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*Invoice, error)

	// ListSettledBefore returns paid or cancelled invoices created before
	// cutoff, for the archival sweep.
	ListSettledBefore(ctx context.Context, cutoff time.Time) ([]*Invoice, error)
}
