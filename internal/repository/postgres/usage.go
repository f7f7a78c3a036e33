package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proxynest/proxynest/internal/domain/usage"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/types"
)

type usageRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewUsageRepository(client postgres.IClient, logger *logger.Logger) usage.Repository {
	return &usageRepository{
		client: client,
		logger: logger,
	}
}

const insertSampleQuery = `
	INSERT INTO usage_samples (id, proxy_id, tenant_id, allocation_id, ts, bytes_in, bytes_out)
	VALUES (:id, :proxy_id, :tenant_id, :allocation_id, :ts, :bytes_in, :bytes_out)`

func (r *usageRepository) Insert(ctx context.Context, s *usage.Sample) error {
	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertSampleQuery, s); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record usage sample").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// InsertBatch writes all samples in one statement; sqlx expands the named
// query over the slice.
func (r *usageRepository) InsertBatch(ctx context.Context, samples []*usage.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), insertSampleQuery, samples); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record usage samples").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Series buckets samples with date_trunc. The granularity value is vetted
// against the enum before interpolation.
func (r *usageRepository) Series(ctx context.Context, params *usage.SeriesParams) ([]*usage.Point, error) {
	if err := params.Granularity.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT
			date_trunc('` + string(params.Granularity) + `', ts) AS bucket,
			SUM(bytes_in) AS bytes_in,
			SUM(bytes_out) AS bytes_out,
			SUM(bytes_in + bytes_out) AS bytes_total
		FROM usage_samples
		WHERE ts >= $1 AND ts <= $2`

	args := []any{params.Range.From, params.Range.To}
	if params.TenantID != "" {
		args = append(args, params.TenantID)
		query += ` AND tenant_id = $` + itoa(len(args))
	}
	if params.ProxyID != "" {
		args = append(args, params.ProxyID)
		query += ` AND proxy_id = $` + itoa(len(args))
	}
	if params.AllocationID != "" {
		args = append(args, params.AllocationID)
		query += ` AND allocation_id = $` + itoa(len(args))
	}
	query += ` GROUP BY bucket ORDER BY bucket ASC`

	var points []*usage.Point
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &points, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate usage series").
			Mark(ierr.ErrDatabase)
	}
	return points, nil
}

func (r *usageRepository) TopConsumers(ctx context.Context, tenantID string, tr types.TimeRange, limit int) ([]*usage.Consumer, error) {
	query := `
		SELECT proxy_id, SUM(bytes_in + bytes_out) AS bytes_total
		FROM usage_samples
		WHERE tenant_id = $1 AND ts >= $2 AND ts <= $3
		GROUP BY proxy_id
		ORDER BY bytes_total DESC
		LIMIT $4`

	var consumers []*usage.Consumer
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &consumers, query, tenantID, tr.From, tr.To, limit)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to rank usage consumers").
			Mark(ierr.ErrDatabase)
	}
	return consumers, nil
}

func (r *usageRepository) Totals(ctx context.Context, tenantID string, tr types.TimeRange) (*usage.Totals, error) {
	query := `
		SELECT
			COALESCE(SUM(bytes_in), 0) AS bytes_in,
			COALESCE(SUM(bytes_out), 0) AS bytes_out,
			COALESCE(SUM(bytes_in + bytes_out), 0) AS bytes_total
		FROM usage_samples
		WHERE tenant_id = $1 AND ts >= $2 AND ts <= $3`

	var totals usage.Totals
	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &totals, query, tenantID, tr.From, tr.To); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to sum usage").
			Mark(ierr.ErrDatabase)
	}
	return &totals, nil
}

func (r *usageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM usage_samples WHERE ts < $1`

	res, err := r.client.Querier(ctx).ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to purge usage samples").
			Mark(ierr.ErrDatabase)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return int(affected), nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
