package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/ledger"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// TopupWalletRequest represents an immediate credit to the tenant's wallet
type TopupWalletRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" binding:"required,len=3"`
	PaymentProvider  string          `json:"payment_provider,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Metadata         types.Metadata  `json:"metadata,omitempty"`
}

func (r *TopupWalletRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("top-up amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *TopupWalletRequest) ToEntry(tenantID string, status types.TransactionStatus) *ledger.Entry {
	return &ledger.Entry{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TenantID:         tenantID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Type:             types.TransactionTypeCredit,
		Status:           status,
		PaymentProvider:  r.PaymentProvider,
		PaymentReference: r.PaymentReference,
		Metadata:         r.Metadata,
		BaseModel:        types.GetDefaultBaseModel(),
	}
}

// DebitWalletRequest represents a charge against the tenant's wallet
type DebitWalletRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" binding:"required,len=3"`
	Metadata types.Metadata  `json:"metadata,omitempty"`

	// AllowNegative skips the balance check. Reserved for trusted internal
	// callers such as settlement adjustments, never exposed on the wire.
	AllowNegative bool `json:"-"`
}

func (r *DebitWalletRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("debit amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ConfirmTopupRequest settles a pending provider-initiated top-up. EntryID
// is taken from the URL path, not the body.
type ConfirmTopupRequest struct {
	EntryID          string `json:"-"`
	PaymentReference string `json:"payment_reference" binding:"required"`
}

func (r *ConfirmTopupRequest) Validate() error {
	if r.EntryID == "" {
		return ierr.NewError("entry_id is required").
			Mark(ierr.ErrValidation)
	}
	if r.PaymentReference == "" {
		return ierr.NewError("payment_reference is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundRequest records money returned to the tenant. Refunds never edit an
// earlier entry; they append a credit tagged refunded so history keeps them
// apart from ordinary top-ups.
type RefundRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency" binding:"required,len=3"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	Metadata         types.Metadata  `json:"metadata,omitempty"`
}

func (r *RefundRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("refund amount must be positive").
			WithReportableDetails(map[string]any{
				"amount": r.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *RefundRequest) ToEntry(tenantID string) *ledger.Entry {
	return &ledger.Entry{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TenantID:         tenantID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Type:             types.TransactionTypeCredit,
		Status:           types.TransactionStatusRefunded,
		PaymentReference: r.PaymentReference,
		Metadata:         r.Metadata,
		BaseModel:        types.GetDefaultBaseModel(),
	}
}

// LedgerEntryResponse represents a wallet movement in API responses
type LedgerEntryResponse struct {
	ID               string                  `json:"id"`
	TenantID         string                  `json:"tenant_id"`
	Amount           decimal.Decimal         `json:"amount"`
	Currency         string                  `json:"currency"`
	Type             types.TransactionType   `json:"type"`
	Status           types.TransactionStatus `json:"status"`
	PaymentProvider  string                  `json:"payment_provider,omitempty"`
	PaymentReference string                  `json:"payment_reference,omitempty"`
	Metadata         types.Metadata          `json:"metadata,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

func FromLedgerEntry(e *ledger.Entry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:               e.ID,
		TenantID:         e.TenantID,
		Amount:           e.Amount,
		Currency:         e.Currency,
		Type:             e.Type,
		Status:           e.Status,
		PaymentProvider:  e.PaymentProvider,
		PaymentReference: e.PaymentReference,
		Metadata:         e.Metadata,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// BalanceResponse is the tenant's derived wallet balance, rounded to cents
type BalanceResponse struct {
	TenantID string          `json:"tenant_id"`
	Balance  decimal.Decimal `json:"balance"`
}
