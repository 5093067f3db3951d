package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/SuedeSignup/app/models"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

var (
	ErrMissingSignature        = errors.New("no signature")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrWebhookNotConfigured    = errors.New("STRIPE_WEBHOOK_SECRET environment variable not set")
	ErrWebhookProcessingFailed = errors.New("webhook processing failed")
)

// HandoffConfirmer records a confirmed payment server side.
type HandoffConfirmer interface {
	Confirm(ctx context.Context, h handoff.PaymentHandoff, checkoutSessionID string) (handoff.State, error)
}

// WebhookRecorder receives webhook outcomes for metrics.
type WebhookRecorder interface {
	WebhookReceived(eventType string, outcome string)
}

// WebhookProcessor verifies, deduplicates and dispatches Stripe events.
type WebhookProcessor struct {
	secret   string
	events   *Service
	handoffs HandoffConfirmer
	log      logrus.FieldLogger
	metrics  WebhookRecorder
}

func NewWebhookProcessor(secret string, events *Service, handoffs HandoffConfirmer, log logrus.FieldLogger, metrics WebhookRecorder) *WebhookProcessor {
	return &WebhookProcessor{
		secret:   strings.TrimSpace(secret),
		events:   events,
		handoffs: handoffs,
		log:      log,
		metrics:  metrics,
	}
}

// Verify checks the Stripe-Signature header against the raw payload.
func (p *WebhookProcessor) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	if strings.TrimSpace(signatureHeader) == "" {
		p.metrics.WebhookReceived("", "missing_signature")
		return stripe.Event{}, ErrMissingSignature
	}
	if p.secret == "" {
		p.log.WithField("missing", "STRIPE_WEBHOOK_SECRET").Error("webhook secret is not configured")
		return stripe.Event{}, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		p.log.WithError(err).Warn("webhook signature verification failed")
		p.metrics.WebhookReceived("", "invalid_signature")
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// Process records the event and dispatches it unless an earlier delivery
// already succeeded.
func (p *WebhookProcessor) Process(ctx context.Context, event stripe.Event, payload []byte) (WebhookOutcome, error) {
	eventType := string(event.Type)
	log := p.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": eventType})

	created, stored, err := p.events.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		log.WithError(err).Error("webhook persist failed")
		p.metrics.WebhookReceived(eventType, "error")
		return "", fmt.Errorf("%w: %v", ErrWebhookProcessingFailed, err)
	}
	if !created && stored.Succeeded() {
		log.Info("duplicate webhook delivery")
		p.metrics.WebhookReceived(eventType, string(WebhookDuplicate))
		return WebhookDuplicate, nil
	}

	outcome, dispatchErr := p.dispatch(ctx, event, log)
	if markErr := p.events.MarkWebhookProcessed(ctx, stored.ID, dispatchErr); markErr != nil {
		log.WithError(markErr).Warn("could not mark webhook processed")
	}
	if dispatchErr != nil {
		log.WithError(dispatchErr).Error("webhook dispatch failed")
		p.metrics.WebhookReceived(eventType, "error")
		return "", fmt.Errorf("%w: %v", ErrWebhookProcessingFailed, dispatchErr)
	}

	p.metrics.WebhookReceived(eventType, string(outcome))
	return outcome, nil
}

func (p *WebhookProcessor) dispatch(ctx context.Context, event stripe.Event, log logrus.FieldLogger) (WebhookOutcome, error) {
	switch string(event.Type) {
	case EventCheckoutSessionCompleted:
		return p.handleCheckoutCompleted(ctx, event, log)
	case EventSubscriptionUpdated,
		EventSubscriptionTrialWillEnd,
		EventSubscriptionDeleted,
		EventInvoicePaymentSucceeded,
		EventInvoicePaymentFailed:
		log.WithField("object_id", objectID(event)).Info("subscription lifecycle event")
		return WebhookLogged, nil
	default:
		log.Debug("ignoring webhook event")
		return WebhookIgnored, nil
	}
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, event stripe.Event, log logrus.FieldLogger) (WebhookOutcome, error) {
	if event.Data == nil {
		return "", errors.New("event has no data")
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return "", fmt.Errorf("decode checkout session: %w", err)
	}
	if cs.Mode != stripe.CheckoutSessionModeSubscription {
		log.WithField("mode", cs.Mode).Debug("ignoring non-subscription checkout")
		return WebhookIgnored, nil
	}

	h := HandoffFromSession(&cs)
	log = log.WithFields(logrus.Fields{
		"session_id":      cs.ID,
		"subscription_id": h.SubscriptionID,
		"customer_id":     h.StripeCustomerID,
		"plan_id":         h.PlanID,
		"trial":           h.IsTrial,
	})
	if h.SubscriptionID == "" {
		log.Warn("completed checkout without subscription")
		return WebhookIgnored, nil
	}

	state, err := p.handoffs.Confirm(ctx, h, cs.ID)
	if err != nil {
		return "", fmt.Errorf("confirm payment handoff: %w", err)
	}
	log.WithField("state", state).Info("checkout completed")
	return WebhookHandled, nil
}

// HandoffFromSession extracts the handoff facts from a completed session.
// Plan and trial come from the metadata written at checkout creation.
func HandoffFromSession(cs *stripe.CheckoutSession) handoff.PaymentHandoff {
	return DetailsFromSession(cs).Handoff()
}

func objectID(event stripe.Event) string {
	if event.Data == nil {
		return ""
	}
	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(event.Data.Raw, &obj)
	return obj.ID
}
