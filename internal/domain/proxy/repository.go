package proxy

import (
	"context"

	"github.com/proxynest/proxynest/internal/types"
)

// Repository defines the interface for proxy persistence operations
type Repository interface {
	Create(ctx context.Context, p *Proxy) error
	Get(ctx context.Context, id string) (*Proxy, error)
	GetByAddress(ctx context.Context, ipAddress string, port int) (*Proxy, error)
	List(ctx context.Context, filter *types.ProxyFilter) ([]*Proxy, error)
	Update(ctx context.Context, p *Proxy) error
	UpdateStatus(ctx context.Context, id string, status types.ProxyStatus) error
	Delete(ctx context.Context, id string) error
}
