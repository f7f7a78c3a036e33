package types

// TransactionType is the direction of a ledger entry
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionStatus is the settlement state of a ledger entry. Only
// completed entries contribute to the derived balance; refunded entries are
// completed credits kept distinguishable for audit.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// CountsTowardsBalance reports whether an entry in this status moves the
// derived balance. Refunded credits are audit records of money returned to
// the provider and stay out of the wallet balance.
func (s TransactionStatus) CountsTowardsBalance() bool {
	return s == TransactionStatusCompleted
}
