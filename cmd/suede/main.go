package main

import (
	"fmt"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/app/controllers"
	"github.com/ManuelReschke/SuedeSignup/docs"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/billing"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/cache"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/database"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/logger"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/metrics"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/provisioning"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/router"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/secretbox"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/session"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	logger.Get().Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	log := logger.Setup()
	database.SetupDatabase()
	cache.SetupCache()
	session.NewSessionStore()

	if missing := env.Missing(append([]string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "API_URL", "SESSION_ENCRYPTION_KEY"}, billing.PriceEnvKeys()...)...); len(missing) > 0 {
		log.WithField("missing", missing).Warn("configuration incomplete, affected endpoints will answer with configuration errors")
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/suede to project root
		"../../../", // Fallback
	}

	// Find the directory holding the OpenAPI document
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + docs.FileName); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery, request ids and logging
	app.Use(
		recover.New(),
		requestid.New(requestid.Config{Generator: uuid.NewString}),
		fiberlogger.New(fiberlogger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}),
	)

	// SWAGGER / OPENAPI
	if basePath != "" {
		openAPICfg := swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + docs.FileName,
			Path:     "v1",
		}
		app.Use(swagger.New(openAPICfg))
	} else {
		log.Warn("openapi document not found, /docs/api disabled")
	}

	// ROUTER
	router.InstallRouter(app, wire(log))

	return app
}

// wire builds the controllers. Unconfigured providers stay nil so the
// endpoints that need them report a configuration error.
func wire(log *logrus.Logger) router.Deps {
	m := metrics.New()

	var gateway billing.Gateway
	if gw := billing.NewStripeGatewayFromEnv(); gw != nil {
		gateway = gw
	}
	var backend provisioning.Backend
	if client := provisioning.NewClientFromEnv(); client != nil {
		backend = client
	}
	var sealer session.Sealer
	if box, err := secretbox.NewFromEnv(); err != nil {
		log.WithError(err).Warn("session encryption unavailable, new accounts will sign in manually")
	} else {
		sealer = box
	}

	db := database.GetDB()
	ledger := handoff.NewLedger(db)
	lookup := billing.NewSessionLookup(gateway, cache.JSONStore{}, log)
	webhookSecret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	accounts := provisioning.NewService(backend, ledger, provisioning.NewRedisLocker(cache.GetClient()), log, m)

	return router.Deps{
		Billing: controllers.NewBillingController(
			billing.NewCheckoutService(gateway, log, m),
			lookup,
			billing.NewWebhookProcessor(webhookSecret, billing.NewServiceFromDB(db), ledger, log, m),
			billing.NewPriceCatalogFromEnv(),
			log,
		),
		Accounts:    controllers.NewAccountController(accounts),
		Signup:      controllers.NewSignupController(lookup, ledger, accounts, sealer, log),
		Diagnostics: controllers.NewDiagnosticsController(gateway, webhookSecret, log),
		Metrics:     m,
		Dev:         env.IsDev(),
	}
}
