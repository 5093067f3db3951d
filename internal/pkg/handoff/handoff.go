package handoff

import (
	"strings"
	"time"
)

const (
	// StorageKey is the single session key the payment handoff lives under.
	StorageKey = "suede_payment_data"

	// MaxAge bounds how long a handoff record is honored after it was written.
	MaxAge = 24 * time.Hour
)

// PaymentHandoff carries the facts of a completed checkout from the provider
// redirect to the account creation step.
type PaymentHandoff struct {
	Email            string `json:"email"`
	PlanID           string `json:"planId"`
	BillingPeriod    string `json:"billingPeriod"`
	StripeCustomerID string `json:"stripeCustomerId"`
	SubscriptionID   string `json:"subscriptionId"`
	IsTrial          bool   `json:"isTrial"`
	// Timestamp is the write time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

func (h PaymentHandoff) WrittenAt() time.Time {
	return time.UnixMilli(h.Timestamp)
}

// Expired reports whether the record is at least MaxAge old at now.
func (h PaymentHandoff) Expired(now time.Time) bool {
	return now.Sub(h.WrittenAt()) >= MaxAge
}

// HasPaymentDetails reports whether the provider-side identifiers needed for
// provisioning are present.
func (h PaymentHandoff) HasPaymentDetails() bool {
	return strings.TrimSpace(h.StripeCustomerID) != "" &&
		strings.TrimSpace(h.SubscriptionID) != "" &&
		strings.TrimSpace(h.PlanID) != ""
}
