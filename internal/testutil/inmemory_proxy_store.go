package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/proxynest/proxynest/internal/domain/proxy"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

type InMemoryProxyStore struct {
	mu      sync.RWMutex
	proxies map[string]*proxy.Proxy
}

func NewInMemoryProxyStore() *InMemoryProxyStore {
	return &InMemoryProxyStore{
		proxies: make(map[string]*proxy.Proxy),
	}
}

func (s *InMemoryProxyStore) Create(ctx context.Context, p *proxy.Proxy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.proxies[p.ID]; exists {
		return ierr.NewError("proxy already exists").Mark(ierr.ErrAlreadyExists)
	}
	for _, existing := range s.proxies {
		if !existing.IsDeleted() && existing.IPAddress == p.IPAddress && existing.Port == p.Port {
			return ierr.NewError("a proxy with this address already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	s.proxies[p.ID] = p
	return nil
}

func (s *InMemoryProxyStore) Get(ctx context.Context, id string) (*proxy.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.proxies[id]
	if !exists || p.IsDeleted() {
		return nil, ierr.NewError("proxy not found").Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryProxyStore) GetByAddress(ctx context.Context, ipAddress string, port int) (*proxy.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.proxies {
		if !p.IsDeleted() && p.IPAddress == ipAddress && p.Port == port {
			return p, nil
		}
	}
	return nil, ierr.NewError("proxy not found").Mark(ierr.ErrNotFound)
}

func (s *InMemoryProxyStore) List(ctx context.Context, filter *types.ProxyFilter) ([]*proxy.Proxy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*proxy.Proxy
	for _, p := range s.proxies {
		if filter == nil || !filter.IncludeDeleted {
			if p.IsDeleted() {
				continue
			}
		}
		if filter != nil && filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *InMemoryProxyStore) Update(ctx context.Context, p *proxy.Proxy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.proxies[p.ID]
	if !exists || existing.IsDeleted() {
		return ierr.NewError("proxy not found").Mark(ierr.ErrNotFound)
	}
	p.UpdatedAt = time.Now().UTC()
	s.proxies[p.ID] = p
	return nil
}

func (s *InMemoryProxyStore) UpdateStatus(ctx context.Context, id string, status types.ProxyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.proxies[id]
	if !exists || p.IsDeleted() {
		return ierr.NewError("proxy not found").Mark(ierr.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryProxyStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.proxies[id]
	if !exists || p.IsDeleted() {
		return ierr.NewError("proxy not found").Mark(ierr.ErrNotFound)
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.Status = types.ProxyStatusDisabled
	p.UpdatedAt = now
	return nil
}
