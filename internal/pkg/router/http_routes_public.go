package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/constants"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Stripe webhooks: no CSRF, no rate limit, signature-verified in controller
	app.Post(constants.StripeWebhookRoute, h.deps.Billing.HandleStripeWebhook)

	if h.deps.Metrics != nil {
		app.Get("/metrics", h.deps.Metrics.Handler())
	}

	// fiber monitor
	app.Get("/monitor", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New(monitor.Config{Title: "Suede Signup"}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
