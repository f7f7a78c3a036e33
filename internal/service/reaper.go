package service

import (
	"context"
	"time"
)

// ReaperService runs the periodic sweeps: lapsed allocations, usage samples
// past retention and settled invoices past the archival window. Each sweep
// is a pure function of the store and the clock, so replaying one is
// harmless.
type ReaperService interface {
	ExpireAllocations(ctx context.Context, now time.Time) (int, error)
	SweepUsage(ctx context.Context, now time.Time) (int, error)
	SweepInvoices(ctx context.Context, now time.Time) (int, error)
	RunAll(ctx context.Context, now time.Time) (*ReaperResult, error)
}

// ReaperResult reports what one full sweep cycle touched.
type ReaperResult struct {
	AllocationsExpired int `json:"allocations_expired"`
	UsageSamplesPurged int `json:"usage_samples_purged"`
	InvoicesArchived   int `json:"invoices_archived"`
}

type reaperService struct {
	ServiceParams
	allocationSvc AllocationService
	usageSvc      UsageService
	invoiceSvc    InvoiceService
}

func NewReaperService(params ServiceParams) ReaperService {
	return &reaperService{
		ServiceParams: params,
		allocationSvc: NewAllocationService(params),
		usageSvc:      NewUsageService(params),
		invoiceSvc:    NewInvoiceService(params),
	}
}

func (s *reaperService) ExpireAllocations(ctx context.Context, now time.Time) (int, error) {
	return s.allocationSvc.ExpireDue(ctx, now)
}

func (s *reaperService) SweepUsage(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -s.Config.Retention.UsageDays)
	return s.usageSvc.EnforceRetention(ctx, cutoff)
}

func (s *reaperService) SweepInvoices(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -s.Config.Retention.InvoiceDays)
	return s.invoiceSvc.ArchiveSettledBefore(ctx, cutoff)
}

// RunAll executes every sweep; a failing sweep does not stop the others and
// the first error is returned after all have run.
func (s *reaperService) RunAll(ctx context.Context, now time.Time) (*ReaperResult, error) {
	result := &ReaperResult{}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var err error
	result.AllocationsExpired, err = s.ExpireAllocations(ctx, now)
	record(err)

	result.UsageSamplesPurged, err = s.SweepUsage(ctx, now)
	record(err)

	result.InvoicesArchived, err = s.SweepInvoices(ctx, now)
	record(err)

	return result, firstErr
}
