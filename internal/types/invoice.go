package types

// InvoiceStatus is the lifecycle status of a billing document
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
	InvoiceStatusFailed    InvoiceStatus = "failed"
)

// InvoiceNumberMaxAttempts bounds the collision re-rolls when generating a
// tenant-unique invoice number.
const InvoiceNumberMaxAttempts = 3
