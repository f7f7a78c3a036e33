package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/proxynest/proxynest/internal/domain/proxy"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/postgres"
	"github.com/proxynest/proxynest/internal/types"
)

type proxyRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewProxyRepository(client postgres.IClient, logger *logger.Logger) proxy.Repository {
	return &proxyRepository{
		client: client,
		logger: logger,
	}
}

func (r *proxyRepository) Create(ctx context.Context, p *proxy.Proxy) error {
	query := `
		INSERT INTO proxies (
			id, label, ip_address, port, username, password, location, isp,
			dongle_id, status, last_health_check, created_at, updated_at
		) VALUES (
			:id, :label, :ip_address, :port, :username, :password, :location, :isp,
			:dongle_id, :status, :last_health_check, :created_at, :updated_at
		)`

	_, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, p)
	if err != nil {
		if isUniqueViolation(err, "proxies_ip_port_unique") {
			return ierr.WithError(err).
				WithHint("A proxy with this address and port already exists").
				WithReportableDetails(map[string]any{
					"ip_address": p.IPAddress,
					"port":       p.Port,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create proxy").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *proxyRepository) Get(ctx context.Context, id string) (*proxy.Proxy, error) {
	var p proxy.Proxy
	query := `SELECT * FROM proxies WHERE id = $1 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, id); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("proxy not found").
				WithReportableDetails(map[string]any{
					"proxy_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch proxy").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *proxyRepository) GetByAddress(ctx context.Context, ipAddress string, port int) (*proxy.Proxy, error) {
	var p proxy.Proxy
	query := `SELECT * FROM proxies WHERE ip_address = $1 AND port = $2 AND deleted_at IS NULL`

	if err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, ipAddress, port); err != nil {
		if isNoRows(err) {
			return nil, ierr.NewError("proxy not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch proxy").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *proxyRepository) List(ctx context.Context, filter *types.ProxyFilter) ([]*proxy.Proxy, error) {
	query := `SELECT * FROM proxies WHERE 1=1`
	args := []any{}

	if filter == nil || !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filter != nil && filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $1`
	}
	query += ` ORDER BY created_at DESC`

	var proxies []*proxy.Proxy
	if err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &proxies, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list proxies").
			Mark(ierr.ErrDatabase)
	}
	return proxies, nil
}

func (r *proxyRepository) Update(ctx context.Context, p *proxy.Proxy) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE proxies SET
			label = :label,
			username = :username,
			password = :password,
			location = :location,
			isp = :isp,
			dongle_id = :dongle_id,
			status = :status,
			last_health_check = :last_health_check,
			updated_at = :updated_at
		WHERE id = :id AND deleted_at IS NULL`

	res, err := sqlx.NamedExecContext(ctx, r.client.Querier(ctx), query, p)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update proxy").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "proxy")
}

func (r *proxyRepository) UpdateStatus(ctx context.Context, id string, status types.ProxyStatus) error {
	query := `UPDATE proxies SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`

	res, err := r.client.Querier(ctx).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update proxy status").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "proxy")
}

func (r *proxyRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := `UPDATE proxies SET deleted_at = $1, status = $2, updated_at = $1 WHERE id = $3 AND deleted_at IS NULL`

	res, err := r.client.Querier(ctx).ExecContext(ctx, query, now, types.ProxyStatusDisabled, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete proxy").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "proxy")
}
