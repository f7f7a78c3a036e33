package types

import (
	ierr "github.com/proxynest/proxynest/internal/errors"
)

// ProxyStatus is the lifecycle status of a leasable proxy
type ProxyStatus string

const (
	ProxyStatusAvailable   ProxyStatus = "available"
	ProxyStatusAllocated   ProxyStatus = "allocated"
	ProxyStatusMaintenance ProxyStatus = "maintenance"
	ProxyStatusDisabled    ProxyStatus = "disabled"
)

func (s ProxyStatus) Validate() error {
	switch s {
	case ProxyStatusAvailable, ProxyStatusAllocated, ProxyStatusMaintenance, ProxyStatusDisabled:
		return nil
	default:
		return ierr.NewError("invalid proxy status").
			WithHintf("unknown proxy status: %s", s).
			Mark(ierr.ErrValidation)
	}
}

// ProxyFilter narrows proxy list queries
type ProxyFilter struct {
	Status         *ProxyStatus
	IncludeDeleted bool
}
