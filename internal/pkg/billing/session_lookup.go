package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"
)

var ErrMissingSessionID = errors.New("session ID is required")

const sessionCacheTTL = 5 * time.Minute

// JSONCache stores lookup results between page reloads.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SessionLookup resolves a checkout session id into its customer and
// subscription identifiers.
type SessionLookup struct {
	gateway Gateway
	cache   JSONCache
	log     logrus.FieldLogger
}

// NewSessionLookup accepts a nil cache.
func NewSessionLookup(gateway Gateway, cache JSONCache, log logrus.FieldLogger) *SessionLookup {
	return &SessionLookup{gateway: gateway, cache: cache, log: log}
}

func (l *SessionLookup) Lookup(ctx context.Context, sessionID string) (*SessionDetails, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrMissingSessionID
	}
	if l.gateway == nil {
		return nil, ErrStripeNotConfigured
	}

	key := "stripe:checkout_session:" + id
	if l.cache != nil {
		var cached SessionDetails
		hit, err := l.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			l.log.WithError(err).Warn("session lookup cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("customer")
	params.AddExpand("subscription")

	cs, err := l.gateway.GetCheckoutSession(id, params)
	if err != nil {
		l.log.WithField("session_id", id).WithError(err).Error("checkout session lookup failed")
		return nil, &ProviderError{Op: "retrieve checkout session", Err: err}
	}

	details := DetailsFromSession(cs)
	if l.cache != nil {
		if err := l.cache.SetJSON(ctx, key, details, sessionCacheTTL); err != nil {
			l.log.WithError(err).Warn("session lookup cache write failed")
		}
	}
	return &details, nil
}

// DetailsFromSession flattens a checkout session. The email falls back to
// the customer details Stripe collected during checkout.
func DetailsFromSession(cs *stripe.CheckoutSession) SessionDetails {
	d := SessionDetails{
		ID:            cs.ID,
		CustomerEmail: cs.CustomerEmail,
		PaymentStatus: string(cs.PaymentStatus),
		Metadata:      cs.Metadata,
	}
	if d.CustomerEmail == "" && cs.CustomerDetails != nil {
		d.CustomerEmail = cs.CustomerDetails.Email
	}
	if cs.Customer != nil {
		d.CustomerID = cs.Customer.ID
		if d.CustomerEmail == "" {
			d.CustomerEmail = cs.Customer.Email
		}
	}
	if cs.Subscription != nil {
		d.SubscriptionID = cs.Subscription.ID
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	return d
}
