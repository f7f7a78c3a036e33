package proxy

import (
	"time"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Proxy represents a leasable network resource. Proxies are never physically
// deleted; disabling is a status change plus the soft-delete timestamp.
type Proxy struct {
	ID              string            `db:"id" json:"id"`
	Label           string            `db:"label" json:"label,omitempty"`
	IPAddress       string            `db:"ip_address" json:"ip_address"`
	Port            int               `db:"port" json:"port"`
	Username        string            `db:"username" json:"username,omitempty"`
	Password        string            `db:"password" json:"-"`
	Location        string            `db:"location" json:"location,omitempty"`
	ISP             string            `db:"isp" json:"isp,omitempty"`
	DongleID        string            `db:"dongle_id" json:"dongle_id,omitempty"`
	Status          types.ProxyStatus `db:"status" json:"status"`
	LastHealthCheck *time.Time        `db:"last_health_check" json:"last_health_check,omitempty"`

	types.BaseModel
}

func (p *Proxy) TableName() string {
	return "proxies"
}

func (p *Proxy) Validate() error {
	if p.IPAddress == "" {
		return ierr.NewError("ip_address is required").
			WithHint("Proxy address must be set").
			Mark(ierr.ErrValidation)
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ierr.NewError("invalid port").
			WithHintf("port must be in (0, 65535], got %d", p.Port).
			Mark(ierr.ErrValidation)
	}
	return p.Status.Validate()
}
