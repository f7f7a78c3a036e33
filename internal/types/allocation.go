package types

// AllocationStatus is the lifecycle status of a proxy lease
type AllocationStatus string

const (
	AllocationStatusActive    AllocationStatus = "active"
	AllocationStatusExpired   AllocationStatus = "expired"
	AllocationStatusCancelled AllocationStatus = "cancelled"
)

// DefaultAllocationDays is the lease duration applied when the caller does
// not pass one
const DefaultAllocationDays = 30
