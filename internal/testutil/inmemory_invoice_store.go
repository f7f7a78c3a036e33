package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/proxynest/proxynest/internal/domain/invoice"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*invoice.Invoice),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").Mark(ierr.ErrAlreadyExists)
	}
	for _, existing := range s.invoices {
		if existing.IsDeleted() {
			continue
		}
		if existing.TenantID == inv.TenantID && existing.InvoiceNumber == inv.InvoiceNumber {
			return ierr.NewError("invoice number already in use").
				WithReportableDetails(map[string]interface{}{"invoice_number": inv.InvoiceNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	s.invoices[inv.ID] = inv
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, exists := s.invoices[id]
	if !exists || inv.IsDeleted() {
		return nil, ierr.NewError("invoice not found").
			WithReportableDetails(map[string]interface{}{"invoice_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) GetByNumber(ctx context.Context, tenantID, number string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invoices {
		if !inv.IsDeleted() && inv.TenantID == tenantID && inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, ierr.NewError("invoice not found").
		WithReportableDetails(map[string]interface{}{"invoice_number": number}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.invoices[inv.ID]
	if !exists || existing.IsDeleted() {
		return ierr.NewError("invoice not found").Mark(ierr.ErrNotFound)
	}
	inv.UpdatedAt = time.Now().UTC()
	s.invoices[inv.ID] = inv
	return nil
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.invoices[id]
	if !exists || inv.IsDeleted() {
		return ierr.NewError("invoice not found").Mark(ierr.ErrNotFound)
	}
	now := time.Now().UTC()
	inv.DeletedAt = &now
	inv.UpdatedAt = now
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, tenantID string) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*invoice.Invoice
	for _, inv := range s.invoices {
		if !inv.IsDeleted() && inv.TenantID == tenantID {
			result = append(result, inv)
		}
	}
	sortInvoicesNewestFirst(result)
	return result, nil
}

func (s *InMemoryInvoiceStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*invoice.Invoice
	for _, inv := range s.invoices {
		if !inv.IsDeleted() && inv.SubscriptionID == subscriptionID {
			result = append(result, inv)
		}
	}
	sortInvoicesNewestFirst(result)
	return result, nil
}

func (s *InMemoryInvoiceStore) ListSettledBefore(ctx context.Context, cutoff time.Time) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*invoice.Invoice
	for _, inv := range s.invoices {
		if inv.IsDeleted() {
			continue
		}
		if inv.Status != types.InvoiceStatusPaid && inv.Status != types.InvoiceStatusCancelled {
			continue
		}
		if inv.CreatedAt.Before(cutoff) {
			result = append(result, inv)
		}
	}
	sortInvoicesNewestFirst(result)
	return result, nil
}

func sortInvoicesNewestFirst(invoices []*invoice.Invoice) {
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
}
