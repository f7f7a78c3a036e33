package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/proxynest/proxynest/internal/domain/subscription"
	ierr "github.com/proxynest/proxynest/internal/errors"
)

type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]*subscription.Subscription
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs: make(map[string]*subscription.Subscription),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.ID]; exists {
		return ierr.NewError("subscription already exists").Mark(ierr.ErrAlreadyExists)
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subs[id]
	if !exists || sub.IsDeleted() {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.subs[sub.ID]
	if !exists || existing.IsDeleted() {
		return ierr.NewError("subscription not found").Mark(ierr.ErrNotFound)
	}
	sub.UpdatedAt = time.Now().UTC()
	s.subs[sub.ID] = sub
	return nil
}

func (s *InMemorySubscriptionStore) ListByTenant(ctx context.Context, tenantID string) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.subs {
		if !sub.IsDeleted() && sub.TenantID == tenantID {
			result = append(result, sub)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
