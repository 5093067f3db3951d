package controllers

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/billing"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
)

func newDiagnosticsApp(gw billing.Gateway, secret string) *fiber.App {
	dc := NewDiagnosticsController(gw, secret, logger.Discard())
	app := fiber.New()
	app.Get("/api/stripe/test-connection", dc.HandleTestConnection)
	app.Get("/api/stripe/test-webhook", dc.HandleTestWebhook)
	app.Get("/api/debug/env", dc.HandleDebugEnv)
	return app
}

func TestTestConnection(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		resp, body := doJSON(t, newDiagnosticsApp(nil, ""), http.MethodGet, "/api/stripe/test-connection", "")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, body, "Stripe configuration error")
	})

	t.Run("lists products", func(t *testing.T) {
		gw := &stubGateway{products: []*stripe.Product{
			{ID: "prod_1", Name: "Hobby", Active: true},
			{ID: "prod_2", Name: "Starter", Active: false},
		}}
		resp, body := doJSON(t, newDiagnosticsApp(gw, ""), http.MethodGet, "/api/stripe/test-connection", "")
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"connected","productsCount":2,"products":[{"id":"prod_1","name":"Hobby","active":true},{"id":"prod_2","name":"Starter","active":false}]}`, body)
	})

	t.Run("provider failure", func(t *testing.T) {
		gw := &stubGateway{listErr: &stripe.Error{Msg: "Invalid API Key provided"}}
		resp, body := doJSON(t, newDiagnosticsApp(gw, ""), http.MethodGet, "/api/stripe/test-connection", "")
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Stripe connection failed","details":"Invalid API Key provided"}`, body)
	})
}

func TestTestWebhook(t *testing.T) {
	resp, body := doJSON(t, newDiagnosticsApp(nil, "whsec_abcdefghijklmnop"), http.MethodGet, "/api/stripe/test-webhook", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"configured":true,"endpoint":"/api/stripe/webhook","secretPreview":"whsec_abcd..."}`, body)

	resp, body = doJSON(t, newDiagnosticsApp(nil, ""), http.MethodGet, "/api/stripe/test-webhook", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"configured":false,"endpoint":"/api/stripe/webhook"}`, body)

	// Short secrets are not revealed at all.
	resp, body = doJSON(t, newDiagnosticsApp(nil, "whsec_abc"), http.MethodGet, "/api/stripe/test-webhook", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"configured":true,"endpoint":"/api/stripe/webhook","secretPreview":"..."}`, body)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "sk_test_01...", preview("sk_test_0123456789", 10))
	assert.Equal(t, "...", preview("0123456789", 10))
	assert.Equal(t, "...", preview("abc", 10))
	assert.Equal(t, "...", preview("", 10))
}

func TestDebugEnv_TruncatesValues(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_0123456789abcdef")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	t.Setenv("STRIPE_HOBBY_MONTHLY_PRICE_ID", "price_hobby_monthly")

	resp, body := doJSON(t, newDiagnosticsApp(nil, ""), http.MethodGet, "/api/debug/env", "")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"sk_test_01..."`)
	assert.NotContains(t, body, "0123456789abcdef")
	assert.Contains(t, body, `"STRIPE_WEBHOOK_SECRET":{"set":false}`)
}
