package constants

// Route constants shared by the router and the controllers
const (
	AccountCreationRoute = "/signup/account-creation"
	DashboardRoute       = "/dashboard"
	LoginRoute           = "/login"
	// Login page variant that greets a freshly created account
	LoginAccountCreatedRoute = LoginRoute + "?message=account-created"
	StripeWebhookRoute       = "/api/stripe/webhook"
)
