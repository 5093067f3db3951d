package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/billing"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/constants"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/flash"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/provisioning"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/session"
	"github.com/ManuelReschke/SuedeSignup/internal/pkg/viewmodel"
	"github.com/ManuelReschke/SuedeSignup/views"
	signup_views "github.com/ManuelReschke/SuedeSignup/views/signup"
)

const (
	autoLoginDelay     = 2
	loginRedirectDelay = 3
)

// SignupController renders and handles the account creation step that
// follows a completed checkout.
type SignupController struct {
	lookup   *billing.SessionLookup
	ledger   handoff.Ledger
	accounts *provisioning.Service
	sealer   session.Sealer
	log      logrus.FieldLogger
}

func NewSignupController(
	lookup *billing.SessionLookup,
	ledger handoff.Ledger,
	accounts *provisioning.Service,
	sealer session.Sealer,
	log logrus.FieldLogger,
) *SignupController {
	return &SignupController{
		lookup:   lookup,
		ledger:   ledger,
		accounts: accounts,
		sealer:   sealer,
		log:      log,
	}
}

func (sc *SignupController) store(c *fiber.Ctx) *handoff.Store {
	return handoff.NewStore(handoff.NewSessionKV(c), sc.log)
}

// HandleAccountCreation resolves the payment handoff from the return URL,
// the checkout session and the stored record, persists it, and shows the form.
func (sc *SignupController) HandleAccountCreation(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), providerTimeout)
	defer cancel()

	store := sc.store(c)
	fromURL, placeholders := provisioning.HandoffFromQuery(func(key string) string { return c.Query(key) })

	var fromSession *handoff.PaymentHandoff
	if sid := strings.TrimSpace(c.Query("session_id")); sid != "" {
		if provisioning.IsPlaceholder(sid) {
			placeholders = true
		} else {
			fromSession = sc.confirmFromSession(ctx, sid)
		}
	}

	stored, err := store.Get()
	if err != nil {
		sc.log.WithError(err).Warn("could not read payment handoff")
	}

	h := provisioning.MergeHandoffs(&fromURL, fromSession, stored)
	fresh := fromSession != nil || fromURL.StripeCustomerID != "" || fromURL.SubscriptionID != ""
	switch {
	case fresh:
		h.Timestamp = 0
		if err := store.Set(h); err != nil {
			sc.log.WithError(err).Error("could not store payment handoff")
		}
	case stored != nil && c.Query("use_different_email") == "1":
		h.Email = ""
		if err := store.Set(h); err != nil {
			sc.log.WithError(err).Error("could not store payment handoff")
		}
	}

	page := viewmodel.AccountCreation{
		Layout:        viewmodel.Layout{Title: "Create your account"},
		FormAction:    constants.AccountCreationRoute,
		CSRF:          csrfToken(c),
		Email:         h.Email,
		NeedsEmail:    h.Email == "",
		Plan:          h.PlanID,
		PlanLabel:     planLabel(h.PlanID),
		BillingPeriod: h.BillingPeriod,
		IsTrial:       h.IsTrial,
		TrialDays:     billing.TrialDays,
	}

	if !h.HasPaymentDetails() {
		if placeholders {
			page.Error = provisioning.MsgPaymentNotLoaded
		} else {
			page.Error = provisioning.MsgMissingPayment
		}
	}

	if fe := flash.Get(c); fe != nil {
		page.Error = fe.Message
		page.Conflict = fe.Type == flash.TypeConflict
		page.Firstname = fe.Firstname
		page.Lastname = fe.Lastname
	}

	index := signup_views.AccountCreation(page)
	handler := adaptor.HTTPHandler(templ.Handler(views.Layout(page.Layout, index)))

	return handler(c)
}

// confirmFromSession looks the session up at Stripe and records a confirmed
// payment. Failures fall back to the other handoff sources.
func (sc *SignupController) confirmFromSession(ctx context.Context, sessionID string) *handoff.PaymentHandoff {
	details, err := sc.lookup.Lookup(ctx, sessionID)
	if err != nil {
		sc.log.WithField("session_id", sessionID).WithError(err).Warn("checkout session lookup failed on return")
		return nil
	}
	if !details.Paid() || details.SubscriptionID == "" {
		sc.log.WithFields(logrus.Fields{
			"session_id":     sessionID,
			"payment_status": details.PaymentStatus,
		}).Info("checkout session not paid yet")
		return nil
	}

	h := details.Handoff()
	if _, err := sc.ledger.Confirm(ctx, h, sessionID); err != nil {
		sc.log.WithField("subscription_id", h.SubscriptionID).WithError(err).Error("could not confirm payment handoff")
	}
	return &h
}

// HandleAccountCreationSubmit validates the form, provisions once, and
// routes the visitor to the dashboard or the login page.
func (sc *SignupController) HandleAccountCreationSubmit(c *fiber.Ctx) error {
	jsonClient := wantsJSON(c)

	var form provisioning.AccountForm
	if err := c.BodyParser(&form); err != nil {
		return sc.fail(c, jsonClient, form, fiber.StatusBadRequest, fiber.Map{"error": "Invalid request body"})
	}

	store := sc.store(c)
	stored, err := store.Get()
	if err != nil {
		sc.log.WithError(err).Error("could not read payment handoff")
	}
	var h handoff.PaymentHandoff
	if stored != nil {
		h = *stored
	}

	req, err := provisioning.ValidateSubmission(form, h, false)
	if err != nil {
		status, body := provisioningError(err)
		return sc.fail(c, jsonClient, form, status, body)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), provisioningTimeout)
	defer cancel()

	res, err := sc.accounts.CreateAccount(ctx, *req)
	if err != nil {
		status, body := provisioningError(err)
		if errors.Is(err, provisioning.ErrAccountExists) || errors.Is(err, provisioning.ErrAlreadyProvisioned) {
			body["conflict"] = true
		}
		return sc.fail(c, jsonClient, form, status, body)
	}

	if err := store.Clear(); err != nil {
		sc.log.WithError(err).Warn("could not clear payment handoff")
	}

	redirect, delay := constants.LoginAccountCreatedRoute, loginRedirectDelay
	if res.AutoLogin() {
		if err := session.SetAuthTokens(c, sc.sealer, res.AccessToken, res.RefreshToken, string(res.User)); err != nil {
			sc.log.WithError(err).Error("could not establish session after provisioning")
		} else {
			redirect, delay = constants.DashboardRoute, autoLoginDelay
		}
	}

	if jsonClient {
		body := provisioningSuccess(res)
		body["redirect"] = redirect
		body["redirectAfterMs"] = delay * 1000
		return c.JSON(body)
	}

	message := "Your account is ready. Please log in to continue."
	if redirect == constants.DashboardRoute {
		message = "Your account is ready. Taking you to your dashboard."
	}
	done := viewmodel.AccountCreated{
		Layout:  viewmodel.Layout{Title: "Account created", RedirectURL: redirect, RedirectSeconds: delay},
		Message: message,
	}
	handler := adaptor.HTTPHandler(templ.Handler(views.Layout(done.Layout, signup_views.AccountCreated(done))))

	return handler(c)
}

func (sc *SignupController) fail(c *fiber.Ctx, jsonClient bool, form provisioning.AccountForm, status int, body fiber.Map) error {
	if jsonClient {
		return c.Status(status).JSON(body)
	}

	fe := flash.FormError{
		Message:   userMessage(body),
		Firstname: form.Firstname,
		Lastname:  form.Lastname,
	}
	if conflict, _ := body["conflict"].(bool); conflict {
		fe.Type = flash.TypeConflict
	}
	return flash.RedirectWithError(c, constants.AccountCreationRoute, fe)
}

func csrfToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("csrf").(string); ok {
		return token
	}
	return ""
}

func planLabel(plan string) string {
	if plan == "" {
		return ""
	}
	return strings.ToUpper(plan[:1]) + plan[1:]
}
