package subscription

import (
	"context"
)

// Repository defines the interface for subscription persistence operations
type Repository interface {
	Create(ctx context.Context, s *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, s *Subscription) error
	ListByTenant(ctx context.Context, tenantID string) ([]*Subscription, error)
}
