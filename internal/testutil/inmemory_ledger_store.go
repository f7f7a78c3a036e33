package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/domain/ledger"
	ierr "github.com/proxynest/proxynest/internal/errors"
)

type InMemoryLedgerStore struct {
	mu      sync.RWMutex
	entries map[string]*ledger.Entry
}

func NewInMemoryLedgerStore() *InMemoryLedgerStore {
	return &InMemoryLedgerStore{
		entries: make(map[string]*ledger.Entry),
	}
}

func (s *InMemoryLedgerStore) Create(ctx context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.ID]; exists {
		return ierr.NewError("ledger entry already exists").Mark(ierr.ErrAlreadyExists)
	}
	s.entries[e.ID] = e
	return nil
}

func (s *InMemoryLedgerStore) Get(ctx context.Context, id string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[id]
	if !exists || e.IsDeleted() {
		return nil, ierr.NewError("ledger entry not found").Mark(ierr.ErrNotFound)
	}
	return e, nil
}

func (s *InMemoryLedgerStore) Update(ctx context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.entries[e.ID]
	if !exists || existing.IsDeleted() {
		return ierr.NewError("ledger entry not found").Mark(ierr.ErrNotFound)
	}
	e.UpdatedAt = time.Now().UTC()
	s.entries[e.ID] = e
	return nil
}

func (s *InMemoryLedgerStore) Balance(ctx context.Context, tenantID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := decimal.Zero
	for _, e := range s.entries {
		if e.IsDeleted() || e.TenantID != tenantID {
			continue
		}
		if !e.Status.CountsTowardsBalance() {
			continue
		}
		balance = balance.Add(e.SignedAmount())
	}
	return balance, nil
}

func (s *InMemoryLedgerStore) List(ctx context.Context, tenantID string) ([]*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*ledger.Entry
	for _, e := range s.entries {
		if !e.IsDeleted() && e.TenantID == tenantID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// LockTenant is a no-op: the store mutex already serializes access.
func (s *InMemoryLedgerStore) LockTenant(ctx context.Context, tenantID string) error {
	return nil
}
