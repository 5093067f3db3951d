package router

import (
	"github.com/ManuelReschke/SuedeSignup/app/controllers"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/metrics"
)

// Deps carries the wired controllers into the routers.
type Deps struct {
	Billing     *controllers.BillingController
	Accounts    *controllers.AccountController
	Signup      *controllers.SignupController
	Diagnostics *controllers.DiagnosticsController
	Metrics     *metrics.Metrics
	Dev         bool
}
