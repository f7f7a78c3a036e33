package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/ledger"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/types"
)

type ledgerRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewLedgerRepository(client postgres.IClient, logger *logger.Logger) ledger.Repository {
	return &ledgerRepository{
		client: client,
		logger: logger,
	}
}

func (r *ledgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (
			id, tenant_id, amount, currency, type, status, payment_provider,
			payment_reference, metadata, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :amount, :currency, :type, :status, :payment_provider,
			:payment_reference, :metadata, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, e); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *ledgerRepository) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	var e ledger.Entry
	query := `SELECT * FROM ledger_entries WHERE id = $1 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &e, query, id); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("ledger entry not found").
				WithReportableDetails(map[string]any{
					"entry_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *ledgerRepository) Update(ctx context.Context, e *ledger.Entry) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE ledger_entries SET
			status = :status,
			payment_reference = :payment_reference,
			metadata = :metadata,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, e)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update ledger entry").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "ledger entry")
}

// Balance derives the balance as completed credits minus completed debits.
// Pending, failed and refunded entries never count.
func (r *ledgerRepository) Balance(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN type = $1 THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE tenant_id = $2 AND status = $3 AND deleted_at IS NULL`

	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &balance, query,
		types.TransactionTypeCredit, tenantID, types.TransactionStatusCompleted)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to derive wallet balance").
			Mark(ierr.ErrDatabase)
	}
	return balance, nil
}

func (r *ledgerRepository) List(ctx context.Context, tenantID string) ([]*ledger.Entry, error) {
	query := `
		SELECT * FROM ledger_entries
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var entries []*ledger.Entry
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &entries, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list ledger entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

// LockTenant takes a transaction-scoped advisory lock keyed on the tenant,
// serializing concurrent balance-check-then-debit sequences. The lock is
// released on commit or rollback.
func (r *ledgerRepository) LockTenant(ctx context.Context, tenantID string) error {
	if r.client.TxFromContext(ctx) == nil {
		return ierr.NewError("tenant lock requires a transaction").
			Mark(ierr.ErrSystem)
	}

	query := `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := r.client.Querier(ctx).ExecContext(ctx, query, tenantID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to acquire tenant lock").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
