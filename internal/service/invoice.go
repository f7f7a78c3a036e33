package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/invoice"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// InvoiceService manages billing documents. Invoice numbers are generated
// server-side, unique per tenant, and re-rolled a bounded number of times on
// collision.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	GetByNumber(ctx context.Context, number string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context) ([]*dto.InvoiceResponse, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*dto.InvoiceResponse, error)
	MarkPaid(ctx context.Context, id string, req *dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error)
	MarkFailed(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, id string, req *dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error)
	Retry(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	Summary(ctx context.Context) (*dto.InvoiceSummaryResponse, error)

	// ArchiveSettledBefore soft-deletes paid and cancelled invoices created
	// before the cutoff and returns the number archived.
	ArchiveSettledBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv := req.ToInvoice(types.GetTenantID(ctx))
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if err := s.createWithNumber(ctx, inv); err != nil {
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"amount", inv.Amount)

	return dto.FromInvoice(inv), nil
}

// createWithNumber assigns a generated number and inserts, re-rolling the
// random suffix on collision up to the attempt budget.
func (s *invoiceService) createWithNumber(ctx context.Context, inv *invoice.Invoice) error {
	now := time.Now().UTC()

	var lastErr error
	for attempt := 0; attempt < types.InvoiceNumberMaxAttempts; attempt++ {
		inv.InvoiceNumber = generateInvoiceNumber(inv.TenantID, now)
		lastErr = s.InvoiceRepo.Create(ctx, inv)
		if lastErr == nil {
			return nil
		}
		if !ierr.IsAlreadyExists(lastErr) {
			return lastErr
		}
		s.Logger.Warnw("invoice number collision, re-rolling",
			"invoice_number", inv.InvoiceNumber,
			"attempt", attempt+1)
	}
	return ierr.WithError(lastErr).
		WithHint("Could not generate a unique invoice number").
		Mark(ierr.ErrAlreadyExists)
}

// generateInvoiceNumber builds INV-<date>-<tenant part>-<random suffix>,
// e.g. INV-20240601-U7F3K2-A8C3D1XZ.
func generateInvoiceNumber(tenantID string, now time.Time) string {
	part := tenantID
	if idx := strings.LastIndex(part, "_"); idx >= 0 {
		part = part[idx+1:]
	}
	if len(part) > 6 {
		part = part[len(part)-6:]
	}
	return fmt.Sprintf("INV-%s-U%s-%s",
		now.Format("20060102"),
		strings.ToUpper(part),
		types.GenerateShortID())
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.FromInvoice(inv), nil
}

func (s *invoiceService) GetByNumber(ctx context.Context, number string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.GetByNumber(ctx, types.GetTenantID(ctx), number)
	if err != nil {
		return nil, err
	}
	return dto.FromInvoice(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context) ([]*dto.InvoiceResponse, error) {
	invoices, err := s.InvoiceRepo.List(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}
	return toInvoiceResponses(invoices), nil
}

func (s *invoiceService) ListBySubscription(ctx context.Context, subscriptionID string) ([]*dto.InvoiceResponse, error) {
	invoices, err := s.InvoiceRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)
	owned := make([]*invoice.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.TenantID == tenantID {
			owned = append(owned, inv)
		}
	}
	return toInvoiceResponses(owned), nil
}

// MarkPaid settles a pending invoice.
func (s *invoiceService) MarkPaid(ctx context.Context, id string, req *dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error) {
	if req == nil {
		req = &dto.MarkInvoicePaidRequest{}
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != types.InvoiceStatusPending {
			return ierr.NewError("invoice is not pending").
				WithHintf("only pending invoices can be marked paid, status is %s", inv.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		now := time.Now().UTC()
		inv.Status = types.InvoiceStatusPaid
		inv.PaidAt = &now
		if req.PaymentProvider != "" {
			inv.PaymentProvider = req.PaymentProvider
		}
		if req.PaymentReference != "" {
			inv.PaymentReference = req.PaymentReference
		}
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("marked invoice paid",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber)

	return dto.FromInvoice(inv), nil
}

// MarkFailed records a failed payment attempt against a pending invoice.
func (s *invoiceService) MarkFailed(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != types.InvoiceStatusPending {
			return ierr.NewError("invoice is not pending").
				WithHintf("only pending invoices can fail, status is %s", inv.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.Status = types.InvoiceStatusFailed
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return dto.FromInvoice(inv), nil
}

// Cancel voids a pending invoice. The reason, when given, is merged into
// the invoice metadata without clobbering existing keys.
func (s *invoiceService) Cancel(ctx context.Context, id string, req *dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error) {
	if req == nil {
		req = &dto.CancelInvoiceRequest{}
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != types.InvoiceStatusPending {
			return ierr.NewError("invoice is not pending").
				WithHintf("only pending invoices can be cancelled, status is %s", inv.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.Status = types.InvoiceStatusCancelled
		if req.Reason != "" {
			inv.Metadata = inv.Metadata.Merge(types.Metadata{
				"cancellation_reason": req.Reason,
				"cancelled_at":        time.Now().UTC().Format(time.RFC3339),
			})
		}
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("cancelled invoice", "invoice_id", inv.ID)

	return dto.FromInvoice(inv), nil
}

// Retry reopens a failed or cancelled invoice for another payment attempt,
// clearing the previous settlement traces.
func (s *invoiceService) Retry(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.getOwned(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != types.InvoiceStatusFailed && inv.Status != types.InvoiceStatusCancelled {
			return ierr.NewError("invoice cannot be retried").
				WithHintf("only failed or cancelled invoices can be retried, status is %s", inv.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.Status = types.InvoiceStatusPending
		inv.PaidAt = nil
		inv.PaymentReference = ""
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("reopened invoice for retry", "invoice_id", inv.ID)

	return dto.FromInvoice(inv), nil
}

func (s *invoiceService) Summary(ctx context.Context) (*dto.InvoiceSummaryResponse, error) {
	invoices, err := s.InvoiceRepo.List(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	summary := &invoice.Summary{}
	for _, inv := range invoices {
		summary.InvoiceCount++
		switch inv.Status {
		case types.InvoiceStatusPaid:
			summary.TotalPaid = summary.TotalPaid.Add(inv.Amount)
			summary.PaidInvoiceCount++
			if inv.PaidAt != nil && !inv.PaidAt.Before(monthStart) {
				summary.PaidThisMonth = summary.PaidThisMonth.Add(inv.Amount)
			}
		case types.InvoiceStatusPending:
			summary.TotalPending = summary.TotalPending.Add(inv.Amount)
			summary.PendingInvoiceCount++
		case types.InvoiceStatusCancelled:
			summary.TotalCancelled = summary.TotalCancelled.Add(inv.Amount)
		}
	}
	return dto.FromInvoiceSummary(summary), nil
}

// ArchiveSettledBefore runs the archival sweep. Each invoice is archived in
// its own transaction; failures are logged and skipped.
func (s *invoiceService) ArchiveSettledBefore(ctx context.Context, cutoff time.Time) (int, error) {
	settled, err := s.InvoiceRepo.ListSettledBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, inv := range settled {
		if err := s.InvoiceRepo.Delete(ctx, inv.ID); err != nil {
			s.Logger.Errorw("failed to archive invoice",
				"invoice_id", inv.ID,
				"error", err)
			continue
		}
		archived++
	}

	if archived > 0 {
		s.Logger.Infow("archived settled invoices", "count", archived)
	}
	return archived, nil
}

func (s *invoiceService) getOwned(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("invoice not found").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	return inv, nil
}

func toInvoiceResponses(invoices []*invoice.Invoice) []*dto.InvoiceResponse {
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.FromInvoice(inv)
	})
}
