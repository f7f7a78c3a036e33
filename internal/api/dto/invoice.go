package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/invoice"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// CreateInvoiceRequest represents the request to raise a billing document.
// The invoice number is always generated server-side.
type CreateInvoiceRequest struct {
	SubscriptionID string              `json:"subscription_id,omitempty"`
	Amount         decimal.Decimal     `json:"amount"`
	Currency       string              `json:"currency" binding:"required,len=3"`
	PaymentMethod  types.PaymentMethod `json:"payment_method" binding:"required"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	Metadata       types.Metadata      `json:"metadata,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("invoice amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return r.PaymentMethod.Validate()
}

func (r *CreateInvoiceRequest) ToInvoice(tenantID string) *invoice.Invoice {
	return &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		TenantID:       tenantID,
		SubscriptionID: r.SubscriptionID,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Status:         types.InvoiceStatusPending,
		PaymentMethod:  r.PaymentMethod,
		DueDate:        r.DueDate,
		Metadata:       r.Metadata,
		BaseModel:      types.GetDefaultBaseModel(),
	}
}

// MarkInvoicePaidRequest settles a pending invoice
type MarkInvoicePaidRequest struct {
	PaymentProvider  string `json:"payment_provider,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

// CancelInvoiceRequest voids a pending invoice; the reason is merged into
// the invoice metadata.
type CancelInvoiceRequest struct {
	Reason string `json:"reason,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               string              `json:"id"`
	TenantID         string              `json:"tenant_id"`
	SubscriptionID   string              `json:"subscription_id,omitempty"`
	InvoiceNumber    string              `json:"invoice_number"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	Status           types.InvoiceStatus `json:"status"`
	PaymentMethod    types.PaymentMethod `json:"payment_method"`
	PaymentProvider  string              `json:"payment_provider,omitempty"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	LedgerEntryID    string              `json:"ledger_entry_id,omitempty"`
	DueDate          *time.Time          `json:"due_date,omitempty"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	Metadata         types.Metadata      `json:"metadata,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func FromInvoice(i *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:               i.ID,
		TenantID:         i.TenantID,
		SubscriptionID:   i.SubscriptionID,
		InvoiceNumber:    i.InvoiceNumber,
		Amount:           i.Amount,
		Currency:         i.Currency,
		Status:           i.Status,
		PaymentMethod:    i.PaymentMethod,
		PaymentProvider:  i.PaymentProvider,
		PaymentReference: i.PaymentReference,
		LedgerEntryID:    i.LedgerEntryID,
		DueDate:          i.DueDate,
		PaidAt:           i.PaidAt,
		Metadata:         i.Metadata,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

// InvoiceSummaryResponse aggregates a tenant's invoices by status
type InvoiceSummaryResponse struct {
	TotalPaid           decimal.Decimal `json:"total_paid"`
	TotalPending        decimal.Decimal `json:"total_pending"`
	TotalCancelled      decimal.Decimal `json:"total_cancelled"`
	PaidThisMonth       decimal.Decimal `json:"paid_this_month"`
	InvoiceCount        int             `json:"invoice_count"`
	PaidInvoiceCount    int             `json:"paid_invoice_count"`
	PendingInvoiceCount int             `json:"pending_invoice_count"`
}

func FromInvoiceSummary(s *invoice.Summary) *InvoiceSummaryResponse {
	return &InvoiceSummaryResponse{
		TotalPaid:           s.TotalPaid,
		TotalPending:        s.TotalPending,
		TotalCancelled:      s.TotalCancelled,
		PaidThisMonth:       s.PaidThisMonth,
		InvoiceCount:        s.InvoiceCount,
		PaidInvoiceCount:    s.PaidInvoiceCount,
		PendingInvoiceCount: s.PendingInvoiceCount,
	}
}
