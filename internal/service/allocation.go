package service

import (
	"context"
	"time"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/allocation"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// AllocationService manages the exclusive time-boxed leases that bind
// proxies to tenants. All state transitions run inside a transaction so the
// allocation row and the proxy status flip together.
type AllocationService interface {
	Allocate(ctx context.Context, req *dto.AllocateProxyRequest) (*dto.AllocationResponse, error)
	Release(ctx context.Context, allocationID string) (*dto.AllocationResponse, error)
	Renew(ctx context.Context, allocationID string, req *dto.RenewAllocationRequest) (*dto.AllocationResponse, error)
	GetAllocation(ctx context.Context, allocationID string) (*dto.AllocationResponse, error)
	ListActive(ctx context.Context) ([]*dto.AllocationResponse, error)
	// ListHistory returns the tenant's full allocation history, or the
	// history of one proxy across tenants when proxyID is set.
	ListHistory(ctx context.Context, proxyID string) ([]*dto.AllocationResponse, error)

	// ExpireDue flips every active allocation whose lease has lapsed to
	// expired and returns the proxies to the pool. Safe to re-run; returns
	// the number of allocations expired.
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type allocationService struct {
	ServiceParams
}

func NewAllocationService(params ServiceParams) AllocationService {
	return &allocationService{
		ServiceParams: params,
	}
}

// Allocate leases a proxy to the calling tenant. The availability pre-check
// gives a friendly error; the store-level one-active-per-proxy guard is what
// actually prevents double allocation under races. A lapsed lease the reaper
// has not swept yet does not block the proxy: it is expired in the same
// transaction and the new lease takes its place.
func (s *allocationService) Allocate(ctx context.Context, req *dto.AllocateProxyRequest) (*dto.AllocationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	now := time.Now().UTC()

	var a *allocation.Allocation
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.ProxyRepo.Get(ctx, req.ProxyID)
		if err != nil {
			return err
		}
		if p.Status == types.ProxyStatusMaintenance || p.Status == types.ProxyStatusDisabled {
			return ierr.NewError("proxy is out of rotation").
				WithHintf("proxy is %s and cannot be allocated", p.Status).
				WithReportableDetails(map[string]any{
					"proxy_id": p.ID,
					"status":   p.Status,
				}).
				Mark(ierr.ErrResourceUnavailable)
		}

		held, err := s.AllocationRepo.FindActiveByProxy(ctx, req.ProxyID)
		if err != nil {
			return err
		}
		if held != nil {
			if held.IsLive(now) {
				return ierr.NewError("proxy is already allocated").
					WithHint("The proxy is held by another live allocation").
					WithReportableDetails(map[string]any{
						"proxy_id": req.ProxyID,
					}).
					Mark(ierr.ErrResourceUnavailable)
			}
			// lapsed lease the reaper has not swept yet; expire it here so
			// the one-active-per-proxy guard lets the new lease in
			held.Status = types.AllocationStatusExpired
			if err := s.AllocationRepo.Update(ctx, held); err != nil {
				return err
			}
		}

		a = req.ToAllocation(tenantID, now)
		if err := a.Validate(); err != nil {
			return err
		}
		if err := s.AllocationRepo.Create(ctx, a); err != nil {
			return err
		}
		return s.ProxyRepo.UpdateStatus(ctx, req.ProxyID, types.ProxyStatusAllocated)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("allocated proxy",
		"allocation_id", a.ID,
		"proxy_id", a.ProxyID,
		"tenant_id", a.TenantID,
		"ends_at", a.EndsAt)

	return dto.FromAllocation(a), nil
}

// Release ends a live lease early. The allocation is marked cancelled with
// the lease cut short to the moment of release, and the proxy returns to
// the pool. A non-active allocation has no live lease to release, so it is
// treated as not found.
func (s *allocationService) Release(ctx context.Context, allocationID string) (*dto.AllocationResponse, error) {
	now := time.Now().UTC()

	var a *allocation.Allocation
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.getOwned(ctx, allocationID)
		if err != nil {
			return err
		}
		if a.Status != types.AllocationStatusActive {
			return ierr.NewError("no active allocation to release").
				WithHintf("allocation is %s", a.Status).
				WithReportableDetails(map[string]any{
					"allocation_id": a.ID,
				}).
				Mark(ierr.ErrNotFound)
		}

		a.Status = types.AllocationStatusCancelled
		a.EndsAt = now
		if err := s.AllocationRepo.Update(ctx, a); err != nil {
			return err
		}
		return s.ProxyRepo.UpdateStatus(ctx, a.ProxyID, types.ProxyStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("released allocation",
		"allocation_id", a.ID,
		"proxy_id", a.ProxyID)

	return dto.FromAllocation(a), nil
}

// Renew extends the lease by the requested number of days from now and
// reactivates it regardless of its current status, reclaiming the proxy if
// it has been returned to the pool in the meantime.
func (s *allocationService) Renew(ctx context.Context, allocationID string, req *dto.RenewAllocationRequest) (*dto.AllocationResponse, error) {
	if req == nil {
		req = &dto.RenewAllocationRequest{}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	days := req.Days
	if days == 0 {
		days = types.DefaultAllocationDays
	}

	now := time.Now().UTC()

	var a *allocation.Allocation
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.getOwned(ctx, allocationID)
		if err != nil {
			return err
		}

		if !a.IsLive(now) {
			// the lease lapsed; someone else may hold the proxy now
			live, err := s.AllocationRepo.FindLiveByProxy(ctx, a.ProxyID, now)
			if err != nil {
				return err
			}
			if live != nil && live.ID != a.ID {
				return ierr.NewError("proxy has been re-allocated").
					WithHint("The proxy was leased to someone else after this allocation lapsed").
					WithReportableDetails(map[string]any{
						"proxy_id": a.ProxyID,
					}).
					Mark(ierr.ErrResourceUnavailable)
			}
		}

		a.Status = types.AllocationStatusActive
		a.EndsAt = now.AddDate(0, 0, days)
		if err := s.AllocationRepo.Update(ctx, a); err != nil {
			return err
		}
		return s.ProxyRepo.UpdateStatus(ctx, a.ProxyID, types.ProxyStatusAllocated)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("renewed allocation",
		"allocation_id", a.ID,
		"ends_at", a.EndsAt)

	return dto.FromAllocation(a), nil
}

func (s *allocationService) GetAllocation(ctx context.Context, allocationID string) (*dto.AllocationResponse, error) {
	a, err := s.getOwned(ctx, allocationID)
	if err != nil {
		return nil, err
	}

	resp := dto.FromAllocation(a)
	if p, err := s.ProxyRepo.Get(ctx, a.ProxyID); err == nil {
		resp.Proxy = dto.FromProxy(p)
	}
	return resp, nil
}

func (s *allocationService) ListActive(ctx context.Context) ([]*dto.AllocationResponse, error) {
	tenantID := types.GetTenantID(ctx)
	allocations, err := s.AllocationRepo.ListActiveByTenant(ctx, tenantID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, allocations, true), nil
}

func (s *allocationService) ListHistory(ctx context.Context, proxyID string) ([]*dto.AllocationResponse, error) {
	var (
		allocations []*allocation.Allocation
		err         error
	)
	if proxyID != "" {
		allocations, err = s.AllocationRepo.ListByProxy(ctx, proxyID)
	} else {
		allocations, err = s.AllocationRepo.ListByTenant(ctx, types.GetTenantID(ctx))
	}
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, allocations, false), nil
}

// ExpireDue processes each lapsed allocation in its own transaction so one
// bad row cannot wedge the whole sweep; failures are logged and skipped.
func (s *allocationService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.AllocationRepo.ListExpiredActive(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, a := range due {
		a := a
		err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			a.Status = types.AllocationStatusExpired
			if err := s.AllocationRepo.Update(ctx, a); err != nil {
				return err
			}
			return s.ProxyRepo.UpdateStatus(ctx, a.ProxyID, types.ProxyStatusAvailable)
		})
		if err != nil {
			s.Logger.Errorw("failed to expire allocation",
				"allocation_id", a.ID,
				"error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.Logger.Infow("expired lapsed allocations", "count", expired)
	}
	return expired, nil
}

// getOwned loads an allocation and hides other tenants' rows behind a not
// found error so the API does not leak their existence.
func (s *allocationService) getOwned(ctx context.Context, allocationID string) (*allocation.Allocation, error) {
	a, err := s.AllocationRepo.Get(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if a.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("allocation not found").
			WithReportableDetails(map[string]any{
				"allocation_id": allocationID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func (s *allocationService) toResponses(ctx context.Context, allocations []*allocation.Allocation, withProxy bool) []*dto.AllocationResponse {
	result := make([]*dto.AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		resp := dto.FromAllocation(a)
		if withProxy {
			if p, err := s.ProxyRepo.Get(ctx, a.ProxyID); err == nil {
				resp.Proxy = dto.FromProxy(p)
			}
		}
		result = append(result, resp)
	}
	return result
}
