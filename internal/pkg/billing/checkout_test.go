package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
)

func newTestCheckoutService(gw Gateway, now time.Time) *CheckoutService {
	s := NewCheckoutService(gw, logger.Discard(), &nopRecorder{})
	s.now = func() time.Time { return now }
	return s
}

func TestCreateSession_HobbyMonthlyGetsTrial(t *testing.T) {
	now := time.Unix(1750000000, 0)
	gw := &fakeGateway{}
	svc := newTestCheckoutService(gw, now)

	res, err := svc.CreateSession(context.Background(), CheckoutRequest{
		PriceID:       "price_hobby_m",
		PlanID:        "hobby",
		BillingPeriod: "monthly",
		SuccessURL:    "https://suede.example/signup/account-creation?plan=hobby",
		CancelURL:     "https://suede.example/signup/plans",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", res.URL)
	assert.True(t, res.HasTrial)

	p := gw.created
	require.NotNil(t, p)
	assert.Equal(t, "subscription", stripe.StringValue(p.Mode))
	require.Len(t, p.PaymentMethodTypes, 1)
	assert.Equal(t, "card", stripe.StringValue(p.PaymentMethodTypes[0]))
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "price_hobby_m", stripe.StringValue(p.LineItems[0].Price))
	assert.Equal(t, int64(1), stripe.Int64Value(p.LineItems[0].Quantity))
	assert.Equal(t, "required", stripe.StringValue(p.BillingAddressCollection))
	assert.True(t, stripe.BoolValue(p.AllowPromotionCodes))
	assert.Equal(t,
		"https://suede.example/signup/account-creation?plan=hobby&session_id={CHECKOUT_SESSION_ID}&trial=true",
		stripe.StringValue(p.SuccessURL))
	assert.Equal(t, "https://suede.example/signup/plans", stripe.StringValue(p.CancelURL))

	require.NotNil(t, p.SubscriptionData)
	assert.Equal(t, int64(1750000000+28*24*60*60), stripe.Int64Value(p.SubscriptionData.TrialEnd))
	want := map[string]string{"planId": "hobby", "billingPeriod": "monthly", "hasTrial": "true"}
	assert.Equal(t, want, p.SubscriptionData.Metadata)
	assert.Equal(t, want, p.Metadata)
}

func TestCreateSession_NoTrialOutsideHobbyMonthly(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestCheckoutService(gw, time.Now())

	res, err := svc.CreateSession(context.Background(), CheckoutRequest{
		PriceID:       "price_starter_y",
		PlanID:        "starter",
		BillingPeriod: "annual",
		SuccessURL:    "https://suede.example/done",
		CancelURL:     "https://suede.example/plans",
	})
	require.NoError(t, err)
	assert.False(t, res.HasTrial)
	assert.Nil(t, gw.created.SubscriptionData.TrialEnd)
	assert.Equal(t, "false", gw.created.SubscriptionData.Metadata["hasTrial"])
	assert.Equal(t, "https://suede.example/done?session_id={CHECKOUT_SESSION_ID}&trial=false",
		stripe.StringValue(gw.created.SuccessURL))
}

func TestCreateSession_MissingPriceIDMakesNoProviderCall(t *testing.T) {
	gw := &fakeGateway{}
	svc := newTestCheckoutService(gw, time.Now())

	_, err := svc.CreateSession(context.Background(), CheckoutRequest{PlanID: "hobby"})
	assert.ErrorIs(t, err, ErrMissingPriceID)
	assert.Nil(t, gw.created)
}

func TestCreateSession_NotConfigured(t *testing.T) {
	svc := newTestCheckoutService(nil, time.Now())

	_, err := svc.CreateSession(context.Background(), CheckoutRequest{PriceID: "price_1"})
	assert.ErrorIs(t, err, ErrStripeNotConfigured)
}

func TestCreateSession_ProviderErrorKeepsOnlyMessage(t *testing.T) {
	gw := &fakeGateway{createErr: &stripe.Error{Msg: "No such price: 'price_missing'"}}
	svc := newTestCheckoutService(gw, time.Now())

	_, err := svc.CreateSession(context.Background(), CheckoutRequest{PriceID: "price_missing"})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "No such price: 'price_missing'", perr.Message())
}

func TestSuccessURL(t *testing.T) {
	assert.Equal(t, "https://a.example/x?session_id={CHECKOUT_SESSION_ID}&trial=false", SuccessURL("https://a.example/x", false))
	assert.Equal(t, "https://a.example/x?y=1&session_id={CHECKOUT_SESSION_ID}&trial=true", SuccessURL("https://a.example/x?y=1", true))
}
