package types

import (
	ierr "github.com/proxynest/proxynest/internal/errors"
)

// SubscriptionStatus is the lifecycle status of a recurring subscription.
// incomplete -> active -> {past_due, canceled, paused}
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
)

// PaymentMethod is how a subscription or invoice gets funded
type PaymentMethod string

const (
	// PaymentMethodWallet settles against the tenant's prepaid ledger
	PaymentMethodWallet PaymentMethod = "wallet"
	// PaymentMethodStripe defers settlement to the external provider
	PaymentMethodStripe PaymentMethod = "stripe"
)

func (m PaymentMethod) Validate() error {
	switch m {
	case PaymentMethodWallet, PaymentMethodStripe:
		return nil
	default:
		return ierr.NewError("invalid payment method").
			WithHintf("unknown payment method: %s", m).
			Mark(ierr.ErrValidation)
	}
}
