package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
)

type mapCache struct {
	data map[string][]byte
}

func (m *mapCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mapCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func paidSession() *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            "cs_test_abc",
		CustomerEmail: "jane@example.com",
		Customer:      &stripe.Customer{ID: "cus_123"},
		Subscription:  &stripe.Subscription{ID: "sub_456"},
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"planId": "starter"},
	}
}

func TestSessionLookup_ExpandsAndCaches(t *testing.T) {
	gw := &fakeGateway{session: paidSession()}
	lookup := NewSessionLookup(gw, &mapCache{data: map[string][]byte{}}, logger.Discard())

	d, err := lookup.Lookup(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.Equal(t, SessionDetails{
		ID:             "cs_test_abc",
		CustomerEmail:  "jane@example.com",
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
		PaymentStatus:  "paid",
		Metadata:       map[string]string{"planId": "starter"},
	}, *d)
	assert.True(t, d.Paid())

	require.NotNil(t, gw.getParams)
	var expand []string
	for _, e := range gw.getParams.Expand {
		expand = append(expand, *e)
	}
	assert.ElementsMatch(t, []string{"customer", "subscription"}, expand)

	_, err = lookup.Lookup(context.Background(), "cs_test_abc")
	require.NoError(t, err)
	assert.Equal(t, 1, gw.getCalls)
}

func TestSessionLookup_Errors(t *testing.T) {
	lookup := NewSessionLookup(&fakeGateway{getErr: errors.New("boom")}, nil, logger.Discard())

	_, err := lookup.Lookup(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingSessionID)

	_, err = lookup.Lookup(context.Background(), "cs_x")
	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))

	_, err = NewSessionLookup(nil, nil, logger.Discard()).Lookup(context.Background(), "cs_x")
	assert.ErrorIs(t, err, ErrStripeNotConfigured)
}

func TestDetailsFromSession_EmailFallback(t *testing.T) {
	cs := &stripe.CheckoutSession{
		ID:              "cs_1",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "details@example.com"},
	}
	d := DetailsFromSession(cs)
	assert.Equal(t, "details@example.com", d.CustomerEmail)
	assert.NotNil(t, d.Metadata)
	assert.False(t, d.Paid())
}
