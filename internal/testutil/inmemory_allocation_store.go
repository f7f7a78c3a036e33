package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/proxynest/proxynest/internal/domain/allocation"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

type InMemoryAllocationStore struct {
	mu          sync.RWMutex
	allocations map[string]*allocation.Allocation
}

func NewInMemoryAllocationStore() *InMemoryAllocationStore {
	return &InMemoryAllocationStore{
		allocations: make(map[string]*allocation.Allocation),
	}
}

func (s *InMemoryAllocationStore) Create(ctx context.Context, a *allocation.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.allocations[a.ID]; exists {
		return ierr.NewError("allocation already exists").Mark(ierr.ErrAlreadyExists)
	}

	// Mirror of the partial unique index: one active allocation per proxy.
	for _, existing := range s.allocations {
		if existing.IsDeleted() {
			continue
		}
		if existing.ProxyID == a.ProxyID && existing.Status == types.AllocationStatusActive {
			return ierr.NewError("proxy already has an active allocation").
				Mark(ierr.ErrResourceUnavailable)
		}
	}

	s.allocations[a.ID] = a
	return nil
}

func (s *InMemoryAllocationStore) Get(ctx context.Context, id string) (*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.allocations[id]
	if !exists || a.IsDeleted() {
		return nil, ierr.NewError("allocation not found").Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func (s *InMemoryAllocationStore) Update(ctx context.Context, a *allocation.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.allocations[a.ID]
	if !exists || existing.IsDeleted() {
		return ierr.NewError("allocation not found").Mark(ierr.ErrNotFound)
	}
	a.UpdatedAt = time.Now().UTC()
	s.allocations[a.ID] = a
	return nil
}

func (s *InMemoryAllocationStore) FindLiveByProxy(ctx context.Context, proxyID string, now time.Time) (*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.allocations {
		if a.IsDeleted() {
			continue
		}
		if a.ProxyID == proxyID && a.IsLive(now) {
			return a, nil
		}
	}
	return nil, nil
}

func (s *InMemoryAllocationStore) FindActiveByProxy(ctx context.Context, proxyID string) (*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.allocations {
		if a.IsDeleted() {
			continue
		}
		if a.ProxyID == proxyID && a.Status == types.AllocationStatusActive {
			return a, nil
		}
	}
	return nil, nil
}

func (s *InMemoryAllocationStore) ListActiveByTenant(ctx context.Context, tenantID string, now time.Time) ([]*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*allocation.Allocation
	for _, a := range s.allocations {
		if a.IsDeleted() {
			continue
		}
		if a.TenantID == tenantID && a.IsLive(now) {
			result = append(result, a)
		}
	}
	sortByStartsAtDesc(result)
	return result, nil
}

func (s *InMemoryAllocationStore) ListActiveBySubscription(ctx context.Context, subscriptionID string) ([]*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*allocation.Allocation
	for _, a := range s.allocations {
		if a.IsDeleted() {
			continue
		}
		if a.SubscriptionID == subscriptionID && a.Status == types.AllocationStatusActive {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *InMemoryAllocationStore) ListExpiredActive(ctx context.Context, now time.Time) ([]*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*allocation.Allocation
	for _, a := range s.allocations {
		if a.IsDeleted() {
			continue
		}
		if a.Status == types.AllocationStatusActive && a.EndsAt.Before(now) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *InMemoryAllocationStore) ListByTenant(ctx context.Context, tenantID string) ([]*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*allocation.Allocation
	for _, a := range s.allocations {
		if !a.IsDeleted() && a.TenantID == tenantID {
			result = append(result, a)
		}
	}
	sortByStartsAtDesc(result)
	return result, nil
}

func (s *InMemoryAllocationStore) ListByProxy(ctx context.Context, proxyID string) ([]*allocation.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*allocation.Allocation
	for _, a := range s.allocations {
		if !a.IsDeleted() && a.ProxyID == proxyID {
			result = append(result, a)
		}
	}
	sortByStartsAtDesc(result)
	return result, nil
}

func sortByStartsAtDesc(allocations []*allocation.Allocation) {
	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].StartsAt.After(allocations[j].StartsAt)
	})
}
