package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for ledger persistence operations
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	Update(ctx context.Context, e *Entry) error

	// Balance derives the tenant's balance from completed entries. Never a
	// stored running total.
	Balance(ctx context.Context, tenantID string) (decimal.Decimal, error)

	// List returns all non-deleted entries for the tenant, newest first.
	List(ctx context.Context, tenantID string) ([]*Entry, error)

	// LockTenant serializes concurrent balance-check-then-debit sequences
	// for one tenant within the surrounding transaction. Callers must be
	// inside WithTx.
	LockTenant(ctx context.Context, tenantID string) error
}
