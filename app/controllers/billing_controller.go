package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/billing"
)

const providerTimeout = 15 * time.Second

// BillingController serves the Stripe facing endpoints.
type BillingController struct {
	checkout *billing.CheckoutService
	lookup   *billing.SessionLookup
	webhooks *billing.WebhookProcessor
	catalog  billing.PriceCatalog
	log      logrus.FieldLogger
}

func NewBillingController(
	checkout *billing.CheckoutService,
	lookup *billing.SessionLookup,
	webhooks *billing.WebhookProcessor,
	catalog billing.PriceCatalog,
	log logrus.FieldLogger,
) *BillingController {
	return &BillingController{
		checkout: checkout,
		lookup:   lookup,
		webhooks: webhooks,
		catalog:  catalog,
		log:      log,
	}
}

func (bc *BillingController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req billing.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), providerTimeout)
	defer cancel()

	res, err := bc.checkout.CreateSession(ctx, req)
	if err != nil {
		var perr *billing.ProviderError
		switch {
		case errors.Is(err, billing.ErrMissingPriceID):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Price ID is required",
				"details": "No priceId provided in request body",
			})
		case errors.Is(err, billing.ErrStripeNotConfigured):
			return stripeConfigError(c)
		case errors.As(err, &perr):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create checkout session",
				"details": perr.Message(),
				"priceId": req.PriceID,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create checkout session",
				"priceId": req.PriceID,
			})
		}
	}

	return c.JSON(fiber.Map{"url": res.URL})
}

func (bc *BillingController) HandleGetSession(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), providerTimeout)
	defer cancel()

	details, err := bc.lookup.Lookup(ctx, c.Query("session_id"))
	switch {
	case errors.Is(err, billing.ErrMissingSessionID):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session ID is required"})
	case errors.Is(err, billing.ErrStripeNotConfigured):
		return stripeConfigError(c)
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve session data"})
	}
	return c.JSON(details)
}

func (bc *BillingController) HandlePlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": bc.catalog.Offers()})
}

// HandleStripeWebhook verifies the signature on the untouched body before
// anything is recorded.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	event, err := bc.webhooks.Verify(rawBody, c.Get("Stripe-Signature"))
	switch {
	case errors.Is(err, billing.ErrMissingSignature):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No signature"})
	case errors.Is(err, billing.ErrWebhookNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Webhook configuration error",
			"details": "STRIPE_WEBHOOK_SECRET environment variable not set",
		})
	case err != nil:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	outcome, err := bc.webhooks.Process(ctx, event, rawBody)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
	}
	if outcome == billing.WebhookDuplicate {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}
	return c.JSON(fiber.Map{"received": true})
}

func stripeConfigError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Stripe configuration error",
		"details": "STRIPE_SECRET_KEY environment variable not set",
	})
}
