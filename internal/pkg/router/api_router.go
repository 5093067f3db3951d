package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	deps Deps
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	stripe := api.Group("/stripe")
	stripe.Post("/create-checkout-session", h.deps.Billing.HandleCreateCheckoutSession)
	stripe.Get("/get-session", h.deps.Billing.HandleGetSession)
	stripe.Get("/plans", h.deps.Billing.HandlePlans)
	stripe.Post("/create-customer-account", h.deps.Accounts.HandleCreateCustomerAccount)
	stripe.Get("/test-connection", h.deps.Diagnostics.HandleTestConnection)
	stripe.Get("/test-webhook", h.deps.Diagnostics.HandleTestWebhook)

	if h.deps.Dev {
		api.Get("/debug/env", h.deps.Diagnostics.HandleDebugEnv)
	}
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}
