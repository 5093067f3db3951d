package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/billing"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/constants"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

const (
	testProductsLimit = 5
	secretPreviewLen  = 10
)

// DiagnosticsController answers configuration checks for operators.
type DiagnosticsController struct {
	gateway       billing.Gateway
	webhookSecret string
	log           logrus.FieldLogger
}

func NewDiagnosticsController(gateway billing.Gateway, webhookSecret string, log logrus.FieldLogger) *DiagnosticsController {
	return &DiagnosticsController{gateway: gateway, webhookSecret: webhookSecret, log: log}
}

func (dc *DiagnosticsController) HandleTestConnection(c *fiber.Ctx) error {
	if dc.gateway == nil {
		return stripeConfigError(c)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), providerTimeout)
	defer cancel()

	products, err := dc.gateway.ListProducts(ctx, testProductsLimit)
	if err != nil {
		dc.log.WithError(err).Error("stripe connection test failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Stripe connection failed",
			"details": (&billing.ProviderError{Op: "list products", Err: err}).Message(),
		})
	}

	list := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		list = append(list, fiber.Map{"id": p.ID, "name": p.Name, "active": p.Active})
	}
	return c.JSON(fiber.Map{
		"status":        "connected",
		"productsCount": len(list),
		"products":      list,
	})
}

func (dc *DiagnosticsController) HandleTestWebhook(c *fiber.Ctx) error {
	body := fiber.Map{
		"configured": dc.webhookSecret != "",
		"endpoint":   constants.StripeWebhookRoute,
	}
	if dc.webhookSecret != "" {
		body["secretPreview"] = preview(dc.webhookSecret, secretPreviewLen)
	}
	return c.JSON(body)
}

// HandleDebugEnv is only routed in development.
func (dc *DiagnosticsController) HandleDebugEnv(c *fiber.Ctx) error {
	vars := fiber.Map{}
	for _, key := range append([]string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET"}, billing.PriceEnvKeys()...) {
		val := env.GetEnv(key, "")
		entry := fiber.Map{"set": val != ""}
		if val != "" {
			entry["preview"] = preview(val, secretPreviewLen)
		}
		vars[key] = entry
	}
	return c.JSON(fiber.Map{
		"environment": env.GetEnv("APP_ENV", "prod"),
		"variables":   vars,
		"missing":     env.Missing(billing.PriceEnvKeys()...),
	})
}

func preview(v string, n int) string {
	if len(v) <= n {
		return "..."
	}
	return v[:n] + "..."
}
