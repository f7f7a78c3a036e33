package service

import (
	"context"
	"time"

	"github.com/proxynest/proxynest/internal/api/dto"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// ProxyService manages the proxy pool inventory. Availability is always
// derived from the allocation table at read time; the status column on the
// proxy row is advisory and the partial unique index on live allocations is
// the authoritative guard.
type ProxyService interface {
	CreateProxy(ctx context.Context, req *dto.CreateProxyRequest) (*dto.ProxyResponse, error)
	GetProxy(ctx context.Context, id string) (*dto.ProxyResponse, error)
	ListProxies(ctx context.Context, req *dto.ListProxiesRequest) ([]*dto.ProxyResponse, error)
	UpdateProxy(ctx context.Context, id string, req *dto.UpdateProxyRequest) (*dto.ProxyResponse, error)
	DeleteProxy(ctx context.Context, id string) error
	SetProxyStatus(ctx context.Context, id string, status types.ProxyStatus) error
	RecordHealthCheck(ctx context.Context, id string, at time.Time, healthy bool) error
	IsAvailable(ctx context.Context, id string) (bool, error)
}

type proxyService struct {
	ServiceParams
}

func NewProxyService(params ServiceParams) ProxyService {
	return &proxyService{
		ServiceParams: params,
	}
}

func (s *proxyService) CreateProxy(ctx context.Context, req *dto.CreateProxyRequest) (*dto.ProxyResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p := req.ToProxy()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.ProxyRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("registered proxy",
		"proxy_id", p.ID,
		"ip_address", p.IPAddress,
		"port", p.Port)

	return dto.FromProxy(p), nil
}

func (s *proxyService) GetProxy(ctx context.Context, id string) (*dto.ProxyResponse, error) {
	p, err := s.ProxyRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromProxy(p), nil
}

func (s *proxyService) ListProxies(ctx context.Context, req *dto.ListProxiesRequest) ([]*dto.ProxyResponse, error) {
	if req == nil {
		req = &dto.ListProxiesRequest{}
	}
	proxies, err := s.ProxyRepo.List(ctx, req.ToFilter())
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ProxyResponse, 0, len(proxies))
	for _, p := range proxies {
		result = append(result, dto.FromProxy(p))
	}
	return result, nil
}

func (s *proxyService) UpdateProxy(ctx context.Context, id string, req *dto.UpdateProxyRequest) (*dto.ProxyResponse, error) {
	p, err := s.ProxyRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		p.Label = *req.Label
	}
	if req.Username != nil {
		p.Username = *req.Username
	}
	if req.Password != nil {
		p.Password = *req.Password
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.ISP != nil {
		p.ISP = *req.ISP
	}
	if req.DongleID != nil {
		p.DongleID = *req.DongleID
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.ProxyRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return dto.FromProxy(p), nil
}

// DeleteProxy soft-deletes a proxy. A proxy under a live lease cannot be
// removed; release the allocation first.
func (s *proxyService) DeleteProxy(ctx context.Context, id string) error {
	if _, err := s.ProxyRepo.Get(ctx, id); err != nil {
		return err
	}

	live, err := s.AllocationRepo.FindLiveByProxy(ctx, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if live != nil {
		return ierr.NewError("proxy has a live allocation").
			WithHint("Release the allocation before deleting the proxy").
			WithReportableDetails(map[string]any{
				"proxy_id":      id,
				"allocation_id": live.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return s.ProxyRepo.Delete(ctx, id)
}

// SetProxyStatus flips a proxy between available, maintenance and disabled.
// The allocated status is owned by the allocation flow and cannot be set
// directly.
func (s *proxyService) SetProxyStatus(ctx context.Context, id string, status types.ProxyStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if status == types.ProxyStatusAllocated {
		return ierr.NewError("allocated status is managed by the allocation flow").
			WithHint("Allocate the proxy instead of setting its status").
			Mark(ierr.ErrInvalidOperation)
	}

	if _, err := s.ProxyRepo.Get(ctx, id); err != nil {
		return err
	}
	return s.ProxyRepo.UpdateStatus(ctx, id, status)
}

// RecordHealthCheck stamps the probe time and moves the proxy in or out of
// rotation on the result: a healthy proxy becomes available, an unhealthy
// one is disabled. An allocated proxy only gets the stamp; the lease decides
// its status, not the probe.
func (s *proxyService) RecordHealthCheck(ctx context.Context, id string, at time.Time, healthy bool) error {
	p, err := s.ProxyRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	at = at.UTC()
	p.LastHealthCheck = &at
	if p.Status != types.ProxyStatusAllocated {
		if healthy {
			p.Status = types.ProxyStatusAvailable
		} else {
			p.Status = types.ProxyStatusDisabled
		}
	}
	return s.ProxyRepo.Update(ctx, p)
}

// IsAvailable reports whether the proxy can be leased right now: it must
// exist, be in rotation, and hold no live allocation. Asking about an
// unknown proxy is an error, not false.
func (s *proxyService) IsAvailable(ctx context.Context, id string) (bool, error) {
	p, err := s.ProxyRepo.Get(ctx, id)
	if err != nil {
		return false, err
	}

	if p.Status == types.ProxyStatusMaintenance || p.Status == types.ProxyStatusDisabled {
		return false, nil
	}

	live, err := s.AllocationRepo.FindLiveByProxy(ctx, id, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return live == nil, nil
}
