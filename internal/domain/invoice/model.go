package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Invoice is a billing document representing a charge, independent of how it
// is paid. InvoiceNumber is unique within a tenant's non-deleted invoices.
// LedgerEntryID links a wallet-paid invoice to the debit that settled it.
type Invoice struct {
	ID               string              `db:"id" json:"id"`
	TenantID         string              `db:"tenant_id" json:"tenant_id"`
	SubscriptionID   string              `db:"subscription_id" json:"subscription_id,omitempty"`
	InvoiceNumber    string              `db:"invoice_number" json:"invoice_number"`
	Amount           decimal.Decimal     `db:"amount" json:"amount"`
	Currency         string              `db:"currency" json:"currency"`
	Status           types.InvoiceStatus `db:"status" json:"status"`
	PaymentMethod    types.PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentProvider  string              `db:"payment_provider" json:"payment_provider,omitempty"`
	PaymentReference string              `db:"payment_reference" json:"payment_reference,omitempty"`
	LedgerEntryID    string              `db:"ledger_entry_id" json:"ledger_entry_id,omitempty"`
	DueDate          *time.Time          `db:"due_date" json:"due_date,omitempty"`
	PaidAt           *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	Metadata         types.Metadata      `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

func (i *Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) Validate() error {
	if i.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			Mark(ierr.ErrValidation)
	}
	if i.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("invoice amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": i.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return i.PaymentMethod.Validate()
}

// Summary aggregates a tenant's non-deleted invoices by status.
type Summary struct {
	TotalPaid           decimal.Decimal `json:"total_paid"`
	TotalPending        decimal.Decimal `json:"total_pending"`
	TotalCancelled      decimal.Decimal `json:"total_cancelled"`
	PaidThisMonth       decimal.Decimal `json:"paid_this_month"`
	InvoiceCount        int             `json:"invoice_count"`
	PaidInvoiceCount    int             `json:"paid_invoice_count"`
	PendingInvoiceCount int             `json:"pending_invoice_count"`
}
