package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proxynest/proxynest/internal/domain/subscription"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		client: client,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, tenant_id, payment_method, status, amount_monthly, currency,
			provider_subscription_id, provider_price_id, current_period_start,
			current_period_end, cancel_at, canceled_at, metadata, created_at, updated_at
		) VALUES (
			:id, :tenant_id, :payment_method, :status, :amount_monthly, :currency,
			:provider_subscription_id, :provider_price_id, :current_period_start,
			:current_period_end, :cancel_at, :canceled_at, :metadata, :created_at, :updated_at
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, s); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	query := `SELECT * FROM subscriptions WHERE id = $1 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &s, query, id); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("subscription not found").
				WithReportableDetails(map[string]any{
					"subscription_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch subscription").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE subscriptions SET
			status = :status,
			amount_monthly = :amount_monthly,
			provider_subscription_id = :provider_subscription_id,
			provider_price_id = :provider_price_id,
			current_period_start = :current_period_start,
			current_period_end = :current_period_end,
			cancel_at = :cancel_at,
			canceled_at = :canceled_at,
			metadata = :metadata,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "subscription")
}

func (r *subscriptionRepository) ListByTenant(ctx context.Context, tenantID string) ([]*subscription.Subscription, error) {
	query := `
		SELECT * FROM subscriptions
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`

	var subs []*subscription.Subscription
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &subs, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
