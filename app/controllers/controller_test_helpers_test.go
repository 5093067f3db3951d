package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/app/models"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

type stubGateway struct {
	session   *stripe.CheckoutSession
	createErr error
	getErr    error
	products  []*stripe.Product
	listErr   error
	created   *stripe.CheckoutSessionParams
}

func (g *stubGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.created = params
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (g *stubGateway) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	if g.session == nil {
		return nil, errors.New("no such checkout session")
	}
	return g.session, nil
}

func (g *stubGateway) ListProducts(ctx context.Context, limit int) ([]*stripe.Product, error) {
	return g.products, g.listErr
}

type quietMetrics struct{}

func (quietMetrics) CheckoutCreated(plan, period string, trial bool)  {}
func (quietMetrics) CheckoutFailed(reason string)                     {}
func (quietMetrics) WebhookReceived(eventType string, outcome string) {}
func (quietMetrics) ProvisioningResult(result string)                 {}

type eventRepo struct {
	mu     sync.Mutex
	events map[string]*models.BillingWebhookEvent
	nextID uint
}

func newEventRepo() *eventRepo {
	return &eventRepo{events: map[string]*models.BillingWebhookEvent{}}
}

func (r *eventRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := event.Provider + "/" + event.ProviderEventID
	if existing, ok := r.events[key]; ok {
		cp := *existing
		return false, &cp, nil
	}
	r.nextID++
	stored := *event
	stored.ID = r.nextID
	r.events[key] = &stored
	cp := stored
	return true, &cp, nil
}

func (r *eventRepo) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, e := range r.events {
		if e.ID == id {
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			e.Attempts++
		}
	}
	return nil
}

type memLedger struct {
	mu     sync.Mutex
	states map[string]handoff.State
}

func newMemLedger() *memLedger {
	return &memLedger{states: map[string]handoff.State{}}
}

func (l *memLedger) Confirm(ctx context.Context, h handoff.PaymentHandoff, checkoutSessionID string) (handoff.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.states[h.SubscriptionID] == handoff.StateProvisioned {
		return handoff.StateProvisioned, nil
	}
	l.states[h.SubscriptionID] = handoff.StatePaymentConfirmed
	return handoff.StatePaymentConfirmed, nil
}

func (l *memLedger) Lookup(ctx context.Context, subscriptionID string) (handoff.State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[subscriptionID], nil
}

func (l *memLedger) MarkProvisioned(ctx context.Context, h handoff.PaymentHandoff) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, err := handoff.Transition(l.states[h.SubscriptionID], handoff.TriggerProvisioned)
	if err != nil {
		return err
	}
	l.states[h.SubscriptionID] = next
	return nil
}

func (l *memLedger) state(subscriptionID string) handoff.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.states[subscriptionID]
}

// openLocker always grants the lock.
type openLocker struct{}

func (openLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}
