package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/domain/ledger"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/types"
)

// LedgerService manages the tenant wallet as an append-only ledger. The
// balance is always derived from completed entries; the only mutation an
// entry ever sees is the pending to completed transition of an external
// top-up. Everything else, refunds included, is a new entry.
type LedgerService interface {
	Balance(ctx context.Context) (*dto.BalanceResponse, error)
	Topup(ctx context.Context, req *dto.TopupWalletRequest) (*dto.LedgerEntryResponse, error)
	Debit(ctx context.Context, req *dto.DebitWalletRequest) (*dto.LedgerEntryResponse, error)
	CreatePendingTopup(ctx context.Context, req *dto.TopupWalletRequest) (*dto.LedgerEntryResponse, error)
	ConfirmTopup(ctx context.Context, req *dto.ConfirmTopupRequest) (*dto.LedgerEntryResponse, error)
	Refund(ctx context.Context, req *dto.RefundRequest) (*dto.LedgerEntryResponse, error)
	History(ctx context.Context) ([]*dto.LedgerEntryResponse, error)
}

type ledgerService struct {
	ServiceParams
}

func NewLedgerService(params ServiceParams) LedgerService {
	return &ledgerService{
		ServiceParams: params,
	}
}

// Balance returns the derived balance rounded to cents. Rounding happens
// only at this boundary; stored amounts keep full precision.
func (s *ledgerService) Balance(ctx context.Context) (*dto.BalanceResponse, error) {
	tenantID := types.GetTenantID(ctx)
	balance, err := s.LedgerRepo.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.BalanceResponse{
		TenantID: tenantID,
		Balance:  balance.Round(2),
	}, nil
}

// Topup credits the wallet immediately, for payments already settled out of
// band.
func (s *ledgerService) Topup(ctx context.Context, req *dto.TopupWalletRequest) (*dto.LedgerEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := req.ToEntry(types.GetTenantID(ctx), types.TransactionStatusCompleted)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.Logger.Infow("credited wallet",
		"entry_id", e.ID,
		"tenant_id", e.TenantID,
		"amount", e.Amount)

	return dto.FromLedgerEntry(e), nil
}

// Debit charges the wallet. The balance check and the insert run inside one
// transaction under a per-tenant advisory lock, so two concurrent debits
// cannot both pass the check and drive the balance negative.
func (s *ledgerService) Debit(ctx context.Context, req *dto.DebitWalletRequest) (*dto.LedgerEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tenantID := types.GetTenantID(ctx)

	var e *ledger.Entry
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.LedgerRepo.LockTenant(ctx, tenantID); err != nil {
			return err
		}

		if !req.AllowNegative {
			balance, err := s.LedgerRepo.Balance(ctx, tenantID)
			if err != nil {
				return err
			}
			if balance.LessThan(req.Amount) {
				return ierr.NewError("insufficient wallet balance").
					WithHint("Top up the wallet before retrying").
					WithReportableDetails(map[string]any{
						"balance":  balance.Round(2),
						"required": req.Amount,
					}).
					Mark(ierr.ErrInsufficientFunds)
			}
		}

		e = &ledger.Entry{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
			TenantID:  tenantID,
			Amount:    req.Amount,
			Currency:  req.Currency,
			Type:      types.TransactionTypeDebit,
			Status:    types.TransactionStatusCompleted,
			Metadata:  req.Metadata,
			BaseModel: types.GetDefaultBaseModel(),
		}
		if err := e.Validate(); err != nil {
			return err
		}
		return s.LedgerRepo.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("debited wallet",
		"entry_id", e.ID,
		"tenant_id", tenantID,
		"amount", e.Amount)

	return dto.FromLedgerEntry(e), nil
}

// CreatePendingTopup opens a credit that does not count towards the balance
// until the payment provider confirms it.
func (s *ledgerService) CreatePendingTopup(ctx context.Context, req *dto.TopupWalletRequest) (*dto.LedgerEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := req.ToEntry(types.GetTenantID(ctx), types.TransactionStatusPending)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return dto.FromLedgerEntry(e), nil
}

// ConfirmTopup settles a pending top-up. Replayed confirmations with the
// same payment reference are a no-op; a different reference on an already
// settled entry is rejected.
func (s *ledgerService) ConfirmTopup(ctx context.Context, req *dto.ConfirmTopupRequest) (*dto.LedgerEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var e *ledger.Entry
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.LedgerRepo.Get(ctx, req.EntryID)
		if err != nil {
			return err
		}

		if e.Status == types.TransactionStatusCompleted {
			if e.PaymentReference == req.PaymentReference {
				return nil
			}
			return ierr.NewError("top-up already settled with a different reference").
				WithReportableDetails(map[string]any{
					"entry_id":          e.ID,
					"payment_reference": e.PaymentReference,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if e.Status != types.TransactionStatusPending {
			return ierr.NewError("top-up is not pending").
				WithHintf("entry is %s and cannot be confirmed", e.Status).
				Mark(ierr.ErrInvalidOperation)
		}

		e.Status = types.TransactionStatusCompleted
		e.PaymentReference = req.PaymentReference
		return s.LedgerRepo.Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("confirmed top-up",
		"entry_id", e.ID,
		"payment_reference", req.PaymentReference)

	return dto.FromLedgerEntry(e), nil
}

// Refund records money returned to the tenant. The ledger is append-only,
// so a refund inserts a fresh credit tagged refunded instead of touching
// the entry that originally carried the money; the tag is an audit record
// and never moves the derived balance.
func (s *ledgerService) Refund(ctx context.Context, req *dto.RefundRequest) (*dto.LedgerEntryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e := req.ToEntry(types.GetTenantID(ctx))
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded refund",
		"entry_id", e.ID,
		"tenant_id", e.TenantID,
		"amount", e.Amount)

	return dto.FromLedgerEntry(e), nil
}

func (s *ledgerService) History(ctx context.Context) ([]*dto.LedgerEntryResponse, error) {
	entries, err := s.LedgerRepo.List(ctx, types.GetTenantID(ctx))
	if err != nil {
		return nil, err
	}

	return lo.Map(entries, func(e *ledger.Entry, _ int) *dto.LedgerEntryResponse {
		return dto.FromLedgerEntry(e)
	}), nil
}

// debitForAmount is the internal debit path used by the subscribe flow. It
// assumes the caller already holds a transaction and the tenant lock.
func (s *ledgerService) debitForAmount(ctx context.Context, tenantID string, amount decimal.Decimal, currency string, metadata types.Metadata) (*ledger.Entry, error) {
	balance, err := s.LedgerRepo.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, ierr.NewError("insufficient wallet balance").
			WithHint("Top up the wallet before subscribing").
			WithReportableDetails(map[string]any{
				"balance":  balance.Round(2),
				"required": amount,
			}).
			Mark(ierr.ErrInsufficientFunds)
	}

	e := &ledger.Entry{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEDGER_ENTRY),
		TenantID:  tenantID,
		Amount:    amount,
		Currency:  currency,
		Type:      types.TransactionTypeDebit,
		Status:    types.TransactionStatusCompleted,
		Metadata:  metadata,
		BaseModel: types.GetDefaultBaseModel(),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
