package payment

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"

	"github.com/proxynest/proxynest/internal/api/dto"
	"github.com/proxynest/proxynest/internal/config"
	ierr "github.com/proxynest/proxynest/internal/errors"
	"github.com/proxynest/proxynest/internal/logger"
	"github.com/proxynest/proxynest/internal/service"
	"github.com/proxynest/proxynest/internal/types"
)

const providerStripe = "stripe"

// CheckoutSession is what the caller needs to redirect the user to Stripe.
type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	// EntryID is set for top-up sessions, InvoiceID for invoice sessions.
	EntryID   string `json:"entry_id,omitempty"`
	InvoiceID string `json:"invoice_id,omitempty"`
}

// StripeService initiates hosted checkout sessions for wallet top-ups and
// invoice payments and settles them once the session completes. The ledger
// and invoice state machines stay authoritative; this layer only translates
// between them and the provider.
type StripeService interface {
	CheckoutTopup(ctx context.Context, req *dto.TopupWalletRequest) (*CheckoutSession, error)
	CheckoutInvoice(ctx context.Context, invoiceID string) (*CheckoutSession, error)
	ConfirmCheckout(ctx context.Context, sessionID string) error
}

type stripeService struct {
	cfg        *config.Configuration
	ledgerSvc  service.LedgerService
	invoiceSvc service.InvoiceService
	logger     *logger.Logger
}

func NewStripeService(
	cfg *config.Configuration,
	ledgerSvc service.LedgerService,
	invoiceSvc service.InvoiceService,
	logger *logger.Logger,
) StripeService {
	return &stripeService{
		cfg:        cfg,
		ledgerSvc:  ledgerSvc,
		invoiceSvc: invoiceSvc,
		logger:     logger,
	}
}

func (s *stripeService) client() (*stripe.Client, error) {
	if s.cfg.Stripe.SecretKey == "" {
		return nil, ierr.NewError("stripe is not configured").
			WithHint("Stripe secret key is missing from the configuration").
			Mark(ierr.ErrSystem)
	}
	return stripe.NewClient(s.cfg.Stripe.SecretKey, nil), nil
}

// CheckoutTopup records a pending credit and opens a checkout session for
// it. The credit only counts towards the balance once ConfirmCheckout sees
// the session paid.
func (s *stripeService) CheckoutTopup(ctx context.Context, req *dto.TopupWalletRequest) (*CheckoutSession, error) {
	stripeClient, err := s.client()
	if err != nil {
		return nil, err
	}

	req.PaymentProvider = providerStripe
	entry, err := s.ledgerSvc.CreatePendingTopup(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, stripeClient, sessionInput{
		name:     "Wallet top-up",
		amount:   entry.Amount,
		currency: entry.Currency,
		metadata: map[string]string{
			"entry_id":  entry.ID,
			"tenant_id": types.GetTenantID(ctx),
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("created stripe top-up checkout session",
		"entry_id", entry.ID,
		"session_id", session.ID,
		"amount", entry.Amount.String())

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		EntryID:   entry.ID,
	}, nil
}

// CheckoutInvoice opens a checkout session for an unpaid invoice.
func (s *stripeService) CheckoutInvoice(ctx context.Context, invoiceID string) (*CheckoutSession, error) {
	stripeClient, err := s.client()
	if err != nil {
		return nil, err
	}

	inv, err := s.invoiceSvc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != types.InvoiceStatusPending {
		return nil, ierr.NewError("invoice is not payable").
			WithHintf("invoice %s is %s, only pending invoices can be paid", inv.InvoiceNumber, inv.Status).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"status":     inv.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	session, err := s.createSession(ctx, stripeClient, sessionInput{
		name:     "Invoice " + inv.InvoiceNumber,
		amount:   inv.Amount,
		currency: inv.Currency,
		metadata: map[string]string{
			"invoice_id": inv.ID,
			"tenant_id":  types.GetTenantID(ctx),
		},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("created stripe invoice checkout session",
		"invoice_id", inv.ID,
		"session_id", session.ID)

	return &CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
		InvoiceID: inv.ID,
	}, nil
}

// ConfirmCheckout settles whatever the session was opened for. Safe to call
// more than once for top-ups, the ledger replays confirmations with the same
// payment reference as no-ops.
func (s *stripeService) ConfirmCheckout(ctx context.Context, sessionID string) error {
	stripeClient, err := s.client()
	if err != nil {
		return err
	}

	session, err := stripeClient.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Unable to retrieve Stripe checkout session").
			WithReportableDetails(map[string]any{
				"session_id": sessionID,
			}).
			Mark(ierr.ErrSystem)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return ierr.NewError("checkout session is not paid").
			WithHintf("session %s has payment status %s", sessionID, session.PaymentStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	reference := sessionID
	if session.PaymentIntent != nil {
		reference = session.PaymentIntent.ID
	}

	if entryID := session.Metadata["entry_id"]; entryID != "" {
		_, err := s.ledgerSvc.ConfirmTopup(ctx, &dto.ConfirmTopupRequest{
			EntryID:          entryID,
			PaymentReference: reference,
		})
		return err
	}

	if invoiceID := session.Metadata["invoice_id"]; invoiceID != "" {
		_, err := s.invoiceSvc.MarkPaid(ctx, invoiceID, &dto.MarkInvoicePaidRequest{
			PaymentProvider:  providerStripe,
			PaymentReference: reference,
		})
		return err
	}

	return ierr.NewError("checkout session has no settlement target").
		WithHint("Session metadata carries neither an entry id nor an invoice id").
		WithReportableDetails(map[string]any{
			"session_id": sessionID,
		}).
		Mark(ierr.ErrInvalidOperation)
}

type sessionInput struct {
	name     string
	amount   decimal.Decimal
	currency string
	metadata map[string]string
}

func (s *stripeService) createSession(ctx context.Context, stripeClient *stripe.Client, in sessionInput) (*stripe.CheckoutSession, error) {
	// Stripe wants the amount in the currency's minor unit
	amountCents := in.amount.Mul(decimal.NewFromInt(100)).IntPart()

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String("payment"),
		SuccessURL: stripe.String(s.cfg.Stripe.SuccessURL),
		CancelURL:  stripe.String(s.cfg.Stripe.CancelURL),
		Metadata:   in.metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(in.currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(in.name),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: in.metadata,
		},
	}

	session, err := stripeClient.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		s.logger.Errorw("failed to create stripe checkout session",
			"error", err)
		return nil, ierr.WithError(err).
			WithHint("Unable to create Stripe checkout session").
			Mark(ierr.ErrSystem)
	}

	return session, nil
}
