package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proxynest/proxynest/internal/domain/invoice"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		client: client,
		logger: logger,
	}
}

// Create inserts the invoice. A violation of the tenant scoped number index
// surfaces as an already exists error so the service can re-roll the number.
func (r *invoiceRepository) Create(ctx context.Context, i *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, tenant_id, subscription_id, invoice_number, amount, currency,
			status, payment_method, payment_provider, payment_reference,
			ledger_entry_id, due_date, paid_at, metadata, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :subscription_id, :invoice_number, :amount, :currency,
			:status, :payment_method, :payment_provider, :payment_reference,
			:ledger_entry_id, :due_date, :paid_at, :metadata, :created_at, :updated_at
		)`

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, i)
	if err != nil {
		if isUniqueViolation(err, "invoices_tenant_number_unique") {
			return ierr.WithError(err).
				WithHint("The invoice number is already in use").
				WithReportableDetails(map[string]any{
					"invoice_number": i.InvoiceNumber,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var i invoice.Invoice
	query := `SELECT * FROM invoices WHERE id = $1 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &i, query, id); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("invoice not found").
				WithReportableDetails(map[string]any{
					"invoice_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch invoice").
			Mark(ierr.ErrDatabase)
	}
	return &i, nil
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, tenantID, invoiceNumber string) (*invoice.Invoice, error) {
	var i invoice.Invoice
	query := `SELECT * FROM invoices WHERE tenant_id = $1 AND invoice_number = $2 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &i, query, tenantID, invoiceNumber); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("invoice not found").
				WithReportableDetails(map[string]any{
					"invoice_number": invoiceNumber,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch invoice").
			Mark(ierr.ErrDatabase)
	}
	return &i, nil
}

func (r *invoiceRepository) Update(ctx context.Context, i *invoice.Invoice) error {
	i.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invoices SET
			status = :status,
			payment_provider = :payment_provider,
			payment_reference = :payment_reference,
			ledger_entry_id = :ledger_entry_id,
			due_date = :due_date,
			paid_at = :paid_at,
			metadata = :metadata,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, i)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "invoice")
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := `UPDATE invoices SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	res, err := r.client.Querier(ctx).ExecContext(ctx, query, now, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "invoice")
}

func (r *invoiceRepository) List(ctx context.Context, tenantID string) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var invoices []*invoice.Invoice
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &invoices, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE subscription_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var invoices []*invoice.Invoice
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &invoices, query, subscriptionID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) ListSettledBefore(ctx context.Context, cutoff time.Time) ([]*invoice.Invoice, error) {
	query := `
		SELECT * FROM invoices
		WHERE status IN ($1, $2) AND created_at < $3 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var invoices []*invoice.Invoice
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &invoices, query,
		types.InvoiceStatusPaid, types.InvoiceStatusCancelled, cutoff)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list settled invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}
