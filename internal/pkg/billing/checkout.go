package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

var (
	ErrMissingPriceID      = errors.New("price ID is required")
	ErrStripeNotConfigured = errors.New("STRIPE_SECRET_KEY environment variable not set")
)

// ProviderError wraps a failed Stripe call. Only the message leaves the service.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message())
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Message is the provider's human readable error text.
func (e *ProviderError) Message() string {
	var se *stripe.Error
	if errors.As(e.Err, &se) && se.Msg != "" {
		return se.Msg
	}
	return e.Err.Error()
}

// CheckoutRecorder receives checkout outcomes for metrics.
type CheckoutRecorder interface {
	CheckoutCreated(plan, period string, trial bool)
	CheckoutFailed(reason string)
}

// CheckoutService creates hosted subscription checkout sessions.
type CheckoutService struct {
	gateway Gateway
	log     logrus.FieldLogger
	metrics CheckoutRecorder
	now     func() time.Time
}

// NewCheckoutService takes a nil gateway when Stripe is not configured.
func NewCheckoutService(gateway Gateway, log logrus.FieldLogger, metrics CheckoutRecorder) *CheckoutService {
	return &CheckoutService{gateway: gateway, log: log, metrics: metrics, now: time.Now}
}

// CreateSession validates the request and opens a checkout session.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		s.metrics.CheckoutFailed("missing_price")
		return nil, ErrMissingPriceID
	}
	if s.gateway == nil {
		s.log.WithField("missing", "STRIPE_SECRET_KEY").Error("stripe is not configured")
		s.metrics.CheckoutFailed("not_configured")
		return nil, ErrStripeNotConfigured
	}

	hasTrial := HasTrial(req.PlanID, req.BillingPeriod)
	params := s.buildParams(req, priceID, hasTrial)
	params.Context = ctx

	cs, err := s.gateway.NewCheckoutSession(params)
	if err != nil {
		perr := &ProviderError{Op: "create checkout session", Err: err}
		s.log.WithFields(logrus.Fields{
			"price_id": priceID,
			"plan_id":  req.PlanID,
		}).WithError(err).Error("checkout session creation failed")
		s.metrics.CheckoutFailed("provider")
		return nil, perr
	}

	s.log.WithFields(logrus.Fields{
		"session_id": cs.ID,
		"plan_id":    req.PlanID,
		"period":     req.BillingPeriod,
		"trial":      hasTrial,
		"state":      handoff.StateInitiated,
	}).Info("checkout session created")
	s.metrics.CheckoutCreated(req.PlanID, req.BillingPeriod, hasTrial)

	return &CheckoutResult{SessionID: cs.ID, URL: cs.URL, HasTrial: hasTrial}, nil
}

func (s *CheckoutService) buildParams(req CheckoutRequest, priceID string, hasTrial bool) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		"planId":        req.PlanID,
		"billingPeriod": req.BillingPeriod,
		"hasTrial":      strconv.FormatBool(hasTrial),
	}

	subData := &stripe.CheckoutSessionSubscriptionDataParams{
		Metadata: metadata,
	}
	if hasTrial {
		subData.TrialEnd = stripe.Int64(TrialEnd(s.now()))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(priceID), Quantity: stripe.Int64(1)}},
		SuccessURL:               stripe.String(SuccessURL(req.SuccessURL, hasTrial)),
		CancelURL:                stripe.String(req.CancelURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		SubscriptionData:         subData,
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	return params
}

// SuccessURL appends the session placeholder and trial flag to base. The
// placeholder is left unescaped so Stripe can substitute it.
func SuccessURL(base string, hasTrial bool) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "session_id={CHECKOUT_SESSION_ID}&trial=" + strconv.FormatBool(hasTrial)
}
