package dto

import (
	"time"

	"github.com/samber/lo"

	"github.com/proxynest/proxynest/internal/domain/usage"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// RecordUsageRequest represents one metering sample. Timestamp defaults to
// now when zero.
type RecordUsageRequest struct {
	ProxyID      string    `json:"proxy_id" binding:"required"`
	AllocationID string    `json:"allocation_id,omitempty"`
	Timestamp    time.Time `json:"ts,omitempty"`
	BytesIn      int64     `json:"bytes_in"`
	BytesOut     int64     `json:"bytes_out"`
}

func (r *RecordUsageRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.BytesIn < 0 || r.BytesOut < 0 {
		return ierr.NewError("byte counters must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *RecordUsageRequest) ToSample(tenantID string, now time.Time) *usage.Sample {
	ts := r.Timestamp
	if ts.IsZero() {
		ts = now
	}
	return &usage.Sample{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USAGE_SAMPLE),
		ProxyID:      r.ProxyID,
		TenantID:     tenantID,
		AllocationID: r.AllocationID,
		Timestamp:    ts.UTC(),
		BytesIn:      r.BytesIn,
		BytesOut:     r.BytesOut,
	}
}

// RecordUsageBatchRequest inserts several samples in one round trip
type RecordUsageBatchRequest struct {
	Samples []RecordUsageRequest `json:"samples" binding:"required,min=1"`
}

func (r *RecordUsageBatchRequest) Validate() error {
	if len(r.Samples) == 0 {
		return ierr.NewError("samples must not be empty").
			Mark(ierr.ErrValidation)
	}
	for i := range r.Samples {
		if err := r.Samples[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UsageSeriesRequest scopes a bucketed usage query
type UsageSeriesRequest struct {
	ProxyID      string           `json:"proxy_id,omitempty" form:"proxy_id"`
	AllocationID string           `json:"allocation_id,omitempty" form:"allocation_id"`
	From         time.Time        `json:"from" form:"from" binding:"required"`
	To           time.Time        `json:"to" form:"to" binding:"required"`
	Granularity  types.WindowSize `json:"granularity" form:"granularity"`
}

func (r *UsageSeriesRequest) Validate() error {
	if r.Granularity == "" {
		r.Granularity = types.WindowSizeHour
	}
	if err := r.Granularity.Validate(); err != nil {
		return err
	}
	return r.Range().Validate()
}

func (r *UsageSeriesRequest) Range() types.TimeRange {
	return types.TimeRange{From: r.From, To: r.To}
}

// UsagePointResponse is one aggregated bucket in a series response
type UsagePointResponse struct {
	Bucket     time.Time `json:"bucket"`
	BytesIn    int64     `json:"bytes_in"`
	BytesOut   int64     `json:"bytes_out"`
	BytesTotal int64     `json:"bytes_total"`
}

func FromUsagePoints(points []*usage.Point) []*UsagePointResponse {
	return lo.Map(points, func(p *usage.Point, _ int) *UsagePointResponse {
		return &UsagePointResponse{
			Bucket:     p.Bucket,
			BytesIn:    p.BytesIn,
			BytesOut:   p.BytesOut,
			BytesTotal: p.BytesTotal,
		}
	})
}

// UsageConsumerResponse is a per-proxy total in a top-consumers response
type UsageConsumerResponse struct {
	ProxyID    string `json:"proxy_id"`
	BytesTotal int64  `json:"bytes_total"`
}

// UsageTotalsResponse is a plain traffic sum over a range
type UsageTotalsResponse struct {
	BytesIn    int64 `json:"bytes_in"`
	BytesOut   int64 `json:"bytes_out"`
	BytesTotal int64 `json:"bytes_total"`
}
