package usage

import (
	"time"

	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// Sample is one raw metering point for a proxy. Immutable once written;
// hard-deleted only by the retention sweep.
type Sample struct {
	ID           string    `db:"id" json:"id"`
	ProxyID      string    `db:"proxy_id" json:"proxy_id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	AllocationID string    `db:"allocation_id" json:"allocation_id,omitempty"`
	Timestamp    time.Time `db:"ts" json:"ts"`
	BytesIn      int64     `db:"bytes_in" json:"bytes_in"`
	BytesOut     int64     `db:"bytes_out" json:"bytes_out"`
}

func (s *Sample) TableName() string {
	return "usage_samples"
}

func (s *Sample) Validate() error {
	if s.ProxyID == "" {
		return ierr.NewError("proxy_id is required").
			Mark(ierr.ErrValidation)
	}
	if s.TenantID == "" {
		return ierr.NewError("tenant_id is required").
			Mark(ierr.ErrValidation)
	}
	if s.BytesIn < 0 || s.BytesOut < 0 {
		return ierr.NewError("byte counters must be non-negative").
			WithReportableDetails(map[string]any{
				"bytes_in":  s.BytesIn,
				"bytes_out": s.BytesOut,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Point is one aggregated bucket of a usage series, ordered ascending by
// bucket boundary.
type Point struct {
	Bucket     time.Time `db:"bucket" json:"bucket"`
	BytesIn    int64     `db:"bytes_in" json:"bytes_in"`
	BytesOut   int64     `db:"bytes_out" json:"bytes_out"`
	BytesTotal int64     `db:"bytes_total" json:"bytes_total"`
}

// SeriesParams scopes a series query. Exactly one of TenantID, ProxyID or
// AllocationID drives the scope; ProxyID may additionally be filtered by
// TenantID.
type SeriesParams struct {
	TenantID     string
	ProxyID      string
	AllocationID string
	Range        types.TimeRange
	Granularity  types.WindowSize
}

// Consumer is a per-proxy usage total, descending by BytesTotal.
type Consumer struct {
	ProxyID    string `db:"proxy_id" json:"proxy_id"`
	BytesTotal int64  `db:"bytes_total" json:"bytes_total"`
}

// Totals is a plain sum over a range.
type Totals struct {
	BytesIn    int64 `db:"bytes_in" json:"bytes_in"`
	BytesOut   int64 `db:"bytes_out" json:"bytes_out"`
	BytesTotal int64 `db:"bytes_total" json:"bytes_total"`
}
