package usage

import (
	"context"
	"time"

	"github.com/proxynest/proxynest/internal/types"
)

// Repository defines the append-only metering store. Insert paths are safe
// to call at high frequency; the batched variant is a single round trip.
type Repository interface {
	Insert(ctx context.Context, s *Sample) error
	InsertBatch(ctx context.Context, samples []*Sample) error

	// Series aggregates samples into time buckets per the params scope,
	// ascending by bucket. An empty range yields an empty series.
	Series(ctx context.Context, params *SeriesParams) ([]*Point, error)

	// TopConsumers returns per-proxy totals for the tenant over the range,
	// descending by total bytes.
	TopConsumers(ctx context.Context, tenantID string, r types.TimeRange, limit int) ([]*Consumer, error)

	// Totals sums the tenant's traffic over the range.
	Totals(ctx context.Context, tenantID string, r types.TimeRange) (*Totals, error)

	// DeleteOlderThan hard-deletes samples with ts < cutoff and returns the
	// number of rows removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
