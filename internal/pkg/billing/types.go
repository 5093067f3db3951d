package billing

import "github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"

// CheckoutRequest is the body of a checkout session request.
type CheckoutRequest struct {
	PriceID       string `json:"priceId"`
	PlanID        string `json:"planId"`
	BillingPeriod string `json:"billingPeriod"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
}

// CheckoutResult is what the visitor needs to continue at the provider.
type CheckoutResult struct {
	SessionID string `json:"-"`
	URL       string `json:"url"`
	HasTrial  bool   `json:"-"`
}

// SessionDetails is the public view of a checkout session.
type SessionDetails struct {
	ID             string            `json:"id"`
	CustomerEmail  string            `json:"customer_email"`
	CustomerID     string            `json:"customer_id"`
	SubscriptionID string            `json:"subscription_id"`
	PaymentStatus  string            `json:"payment_status"`
	Metadata       map[string]string `json:"metadata"`
}

// Paid reports whether the session completed with a charge or a trial that
// needs no payment.
func (d SessionDetails) Paid() bool {
	return d.PaymentStatus == "paid" || d.PaymentStatus == "no_payment_required"
}

// Handoff extracts the handoff facts. Plan and trial come from the metadata
// written at checkout creation.
func (d SessionDetails) Handoff() handoff.PaymentHandoff {
	return handoff.PaymentHandoff{
		Email:            d.CustomerEmail,
		PlanID:           d.Metadata["planId"],
		BillingPeriod:    d.Metadata["billingPeriod"],
		StripeCustomerID: d.CustomerID,
		SubscriptionID:   d.SubscriptionID,
		IsTrial:          d.Metadata["hasTrial"] == "true",
	}
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// Webhook event types the receiver knows about.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionTrialWillEnd = "customer.subscription.trial_will_end"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// WebhookOutcome summarizes what happened to a delivered event.
type WebhookOutcome string

const (
	WebhookHandled   WebhookOutcome = "handled"
	WebhookLogged    WebhookOutcome = "logged"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookDuplicate WebhookOutcome = "duplicate"
)
