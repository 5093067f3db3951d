package billing

import (
	"context"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/app/models"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

type fakeGateway struct {
	created   *stripe.CheckoutSessionParams
	createErr error
	session   *stripe.CheckoutSession
	getErr    error
	getCalls  int
	getParams *stripe.CheckoutSessionParams
	products  []*stripe.Product
}

func (g *fakeGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.created = params
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

func (g *fakeGateway) GetCheckoutSession(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	g.getCalls++
	g.getParams = params
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.session, nil
}

func (g *fakeGateway) ListProducts(ctx context.Context, limit int) ([]*stripe.Product, error) {
	return g.products, nil
}

type nopRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *nopRecorder) CheckoutCreated(plan, period string, trial bool) {}

func (r *nopRecorder) CheckoutFailed(reason string) {}

func (r *nopRecorder) WebhookReceived(eventType string, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type memoryRepository struct {
	mu     sync.Mutex
	events map[string]*models.BillingWebhookEvent
	nextID uint
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{events: map[string]*models.BillingWebhookEvent{}}
}

func (r *memoryRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
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

func (r *memoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
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

type fakeConfirmer struct {
	confirmed []handoff.PaymentHandoff
	sessions  []string
	err       error
}

func (c *fakeConfirmer) Confirm(ctx context.Context, h handoff.PaymentHandoff, checkoutSessionID string) (handoff.State, error) {
	if c.err != nil {
		return handoff.StateNone, c.err
	}
	c.confirmed = append(c.confirmed, h)
	c.sessions = append(c.sessions, checkoutSessionID)
	return handoff.StatePaymentConfirmed, nil
}
