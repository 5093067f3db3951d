package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/constants"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// JSON clients submit the form without a page token
			return strings.HasPrefix(c.Path(), "/api/") ||
				strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
		},
	}

	protect := csrf.New(csrfConf)
	app.Get(constants.AccountCreationRoute, protect, h.deps.Signup.HandleAccountCreation)
	app.Post(constants.AccountCreationRoute, protect, h.deps.Signup.HandleAccountCreationSubmit)
}
