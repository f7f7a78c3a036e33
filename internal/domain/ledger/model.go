package ledger

import (
	"github.com/shopspring/decimal"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Entry is an immutable append-only record of a wallet movement. The
// tenant's balance is always derived as the sum of completed credits minus
// completed debits; it is never stored as a mutable field. The only
// permitted mutation of an entry is the pending -> completed transition of
// an external top-up.
type Entry struct {
	ID               string                  `db:"id" json:"id"`
	TenantID         string                  `db:"tenant_id" json:"tenant_id"`
	Amount           decimal.Decimal         `db:"amount" json:"amount"`
	Currency         string                  `db:"currency" json:"currency"`
	Type             types.TransactionType   `db:"type" json:"type"`
	Status           types.TransactionStatus `db:"status" json:"status"`
	PaymentProvider  string                  `db:"payment_provider" json:"payment_provider,omitempty"`
	PaymentReference string                  `db:"payment_reference" json:"payment_reference,omitempty"`
	Metadata         types.Metadata          `db:"metadata" json:"metadata,omitempty"`

	types.BaseModel
}

func (e *Entry) TableName() string {
	return "ledger_entries"
}

// SignedAmount returns the entry's contribution to the derived balance:
// positive for credits, negative for debits, zero while not completed.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.IsDeleted() || !e.Status.CountsTowardsBalance() {
		return decimal.Zero
	}
	if e.Type == types.TransactionTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

func (e *Entry) Validate() error {
	if e.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			Mark(ierr.ErrValidation)
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("amount must be positive").
			WithHint("Ledger amounts are always positive; direction is carried by the entry type").
			WithReportableDetails(map[string]any{
				"amount": e.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.Type != types.TransactionTypeCredit && e.Type != types.TransactionTypeDebit {
		return ierr.NewError("invalid transaction type").
			WithHintf("unknown transaction type: %s", e.Type).
			Mark(ierr.ErrValidation)
	}
	return nil
}
