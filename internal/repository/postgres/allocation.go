package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proxynest/proxynest/internal/domain/allocation"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/types"
)

type allocationRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewAllocationRepository(client postgres.IClient, logger *logger.Logger) allocation.Repository {
	return &allocationRepository{
		client: client,
		logger: logger,
	}
}

// Create inserts the lease. The partial unique index on live allocations is
// the authoritative exclusivity guard; a violation means the proxy was taken
// by a concurrent allocate.
func (r *allocationRepository) Create(ctx context.Context, a *allocation.Allocation) error {
	query := `
		INSERT INTO allocations (
			id, tenant_id, proxy_id, subscription_id, starts_at, ends_at,
			status, price_monthly, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :proxy_id, :subscription_id, :starts_at, :ends_at,
			:status, :price_monthly, :created_at, :updated_at
		)`

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, a)
	if err != nil {
		if isUniqueViolation(err, "allocations_one_active_per_proxy") {
			return ierr.WithError(err).
				WithHint("The proxy is held by another live allocation").
				WithReportableDetails(map[string]any{
					"proxy_id": a.ProxyID,
				}).
				Mark(ierr.ErrResourceUnavailable)
		}
		return ierr.WithError(err).
			WithHint("Failed to create allocation").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *allocationRepository) Get(ctx context.Context, id string) (*allocation.Allocation, error) {
	var a allocation.Allocation
	query := `SELECT * FROM allocations WHERE id = $1 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &a, query, id); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("allocation not found").
				WithReportableDetails(map[string]any{
					"allocation_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch allocation").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

func (r *allocationRepository) Update(ctx context.Context, a *allocation.Allocation) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE allocations SET
			starts_at = :starts_at,
			ends_at = :ends_at,
			status = :status,
			price_monthly = :price_monthly,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, a)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update allocation").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "allocation")
}

func (r *allocationRepository) FindLiveByProxy(ctx context.Context, proxyID string, now time.Time) (*allocation.Allocation, error) {
	var a allocation.Allocation
	query := `
		SELECT * FROM allocations
		WHERE proxy_id = $1 AND status = $2 AND ends_at > $3 AND deleted_at IS NULL`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &a, query, proxyID, types.AllocationStatusActive, now)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to look up live allocation").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

func (r *allocationRepository) FindActiveByProxy(ctx context.Context, proxyID string) (*allocation.Allocation, error) {
	var a allocation.Allocation
	query := `
		SELECT * FROM allocations
		WHERE proxy_id = $1 AND status = $2 AND deleted_at IS NULL`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &a, query, proxyID, types.AllocationStatusActive)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to look up active allocation").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

func (r *allocationRepository) ListActiveByTenant(ctx context.Context, tenantID string, now time.Time) ([]*allocation.Allocation, error) {
	query := `
		SELECT * FROM allocations
		WHERE tenant_id = $1 AND status = $2 AND ends_at > $3 AND deleted_at IS NULL
		ORDER BY starts_at DESC`

	var allocations []*allocation.Allocation
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, tenantID, types.AllocationStatusActive, now)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list active allocations").
			Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}

func (r *allocationRepository) ListActiveBySubscription(ctx context.Context, subscriptionID string) ([]*allocation.Allocation, error) {
	query := `
		SELECT * FROM allocations
		WHERE subscription_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	var allocations []*allocation.Allocation
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, subscriptionID, types.AllocationStatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription allocations").
			Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}

func (r *allocationRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]*allocation.Allocation, error) {
	query := `
		SELECT * FROM allocations
		WHERE status = $1 AND ends_at < $2 AND deleted_at IS NULL
		ORDER BY ends_at ASC`

	var allocations []*allocation.Allocation
	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, types.AllocationStatusActive, now)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list lapsed allocations").
			Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}

func (r *allocationRepository) ListByTenant(ctx context.Context, tenantID string) ([]*allocation.Allocation, error) {
	query := `
		SELECT * FROM allocations
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY starts_at DESC`

	var allocations []*allocation.Allocation
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list allocations").
			Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}

func (r *allocationRepository) ListByProxy(ctx context.Context, proxyID string) ([]*allocation.Allocation, error) {
	query := `
		SELECT * FROM allocations
		WHERE proxy_id = $1 AND deleted_at IS NULL
		ORDER BY starts_at DESC`

	var allocations []*allocation.Allocation
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &allocations, query, proxyID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list proxy allocations").
			Mark(ierr.ErrDatabase)
	}
	return allocations, nil
}
