package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/provisioning"
)

const (
	msgAccountExists        = "A user with this email address already exists. Please try logging in instead."
	msgSubscriptionUsed     = "An account has already been created for this subscription. Please log in instead."
	msgProvisioningInFlight = "Your account is already being created. Please wait a moment."
)

// wantsJSON reports whether the client asked for JSON rather than a page.
func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) ||
		strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

// provisioningError maps a provisioning failure to a status and a body. Only
// messages leave the server, never error values.
func provisioningError(err error) (int, fiber.Map) {
	var verr *provisioning.ValidationError
	var ferr *provisioning.FormError
	var berr *provisioning.BackendError

	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest, fiber.Map{"error": verr.Message}
	case errors.As(err, &ferr):
		return fiber.StatusBadRequest, fiber.Map{"error": ferr.Message}
	case errors.Is(err, provisioning.ErrBackendNotConfigured):
		return fiber.StatusInternalServerError, fiber.Map{"error": "API URL not configured"}
	case errors.Is(err, provisioning.ErrAccountExists):
		return fiber.StatusConflict, fiber.Map{
			"error":      "Account already exists",
			"details":    msgAccountExists,
			"statusCode": fiber.StatusConflict,
		}
	case errors.Is(err, provisioning.ErrAlreadyProvisioned):
		return fiber.StatusConflict, fiber.Map{
			"error":      "Subscription already provisioned",
			"details":    msgSubscriptionUsed,
			"statusCode": fiber.StatusConflict,
		}
	case errors.Is(err, provisioning.ErrInFlight):
		return fiber.StatusConflict, fiber.Map{
			"error":      "Account creation already in progress",
			"details":    msgProvisioningInFlight,
			"statusCode": fiber.StatusConflict,
		}
	case errors.Is(err, handoff.ErrPaymentNotConfirmed), errors.Is(err, handoff.ErrHandoffExpired):
		return fiber.StatusConflict, fiber.Map{
			"error":      "Payment not confirmed",
			"details":    provisioning.MsgMissingPayment,
			"statusCode": fiber.StatusConflict,
		}
	case errors.As(err, &berr):
		status := berr.StatusCode
		if status < http.StatusBadRequest {
			status = fiber.StatusBadGateway
		}
		return status, fiber.Map{
			"error":      "Failed to create customer account",
			"details":    berr.Message,
			"statusCode": status,
		}
	default:
		return fiber.StatusInternalServerError, fiber.Map{
			"error":      "Internal server error",
			"statusCode": fiber.StatusInternalServerError,
		}
	}
}

// userMessage picks the text shown on the form for a failure body.
func userMessage(body fiber.Map) string {
	if details, ok := body["details"].(string); ok && details != "" {
		return details
	}
	if msg, ok := body["error"].(string); ok {
		return msg
	}
	return "Something went wrong. Please try again."
}
