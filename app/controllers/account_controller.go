package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/provisioning"
)

const provisioningTimeout = 20 * time.Second

// AccountController exposes provisioning as a JSON endpoint.
type AccountController struct {
	accounts *provisioning.Service
}

func NewAccountController(accounts *provisioning.Service) *AccountController {
	return &AccountController{accounts: accounts}
}

func (ac *AccountController) HandleCreateCustomerAccount(c *fiber.Ctx) error {
	var req provisioning.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), provisioningTimeout)
	defer cancel()

	res, err := ac.accounts.CreateAccount(ctx, req)
	if err != nil {
		status, body := provisioningError(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(provisioningSuccess(res))
}

func provisioningSuccess(res *provisioning.Result) fiber.Map {
	body := fiber.Map{
		"success":      true,
		"message":      "Account created successfully",
		"organization": res.Organization,
		"autoLogin":    res.AutoLogin(),
	}
	if res.AccessToken != "" {
		body["access_token"] = res.AccessToken
	}
	if res.RefreshToken != "" {
		body["refresh_token"] = res.RefreshToken
	}
	if len(res.User) > 0 {
		body["user"] = res.User
	}
	return body
}
