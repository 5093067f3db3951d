package provisioning

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/handoff"
)

const (
	MsgMissingPayment     = "Missing payment details. Please try signing up again."
	MsgPaymentNotLoaded   = "Payment data not fully loaded. Please ensure you entered your email address and try again."
	MsgFirstNameRequired  = "First name is required"
	MsgLastNameRequired   = "Last name is required"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgPasswordsDontMatch = "Passwords do not match"
)

// AccountForm is what the visitor types on the account creation page.
type AccountForm struct {
	Firstname       string `form:"firstname" json:"firstname"`
	Lastname        string `form:"lastname" json:"lastname"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

// IsPlaceholder reports an unsubstituted Stripe template variable.
func IsPlaceholder(v string) bool {
	return strings.Contains(v, "{CHECKOUT_SESSION")
}

// HandoffFromQuery reads the handoff fields a return URL may carry. Values
// that are still template placeholders are dropped and reported.
func HandoffFromQuery(query func(key string) string) (h handoff.PaymentHandoff, placeholders bool) {
	read := func(keys ...string) string {
		for _, key := range keys {
			v := strings.TrimSpace(query(key))
			if v == "" {
				continue
			}
			if IsPlaceholder(v) {
				placeholders = true
				continue
			}
			return v
		}
		return ""
	}

	h = handoff.PaymentHandoff{
		Email:            read("email"),
		PlanID:           read("plan"),
		BillingPeriod:    read("period", "billing_period"),
		StripeCustomerID: read("customer_id"),
		SubscriptionID:   read("subscription_id"),
		IsTrial:          query("trial") == "true",
	}
	if h.BillingPeriod == "" && h.PlanID != "" {
		h.BillingPeriod = "monthly"
	}
	return h, placeholders
}

// MergeHandoffs combines sources field by field; earlier sources win. The
// trial flag is set when any source reports a trial.
func MergeHandoffs(sources ...*handoff.PaymentHandoff) handoff.PaymentHandoff {
	var out handoff.PaymentHandoff
	pick := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		pick(&out.Email, src.Email)
		pick(&out.PlanID, src.PlanID)
		pick(&out.BillingPeriod, src.BillingPeriod)
		pick(&out.StripeCustomerID, src.StripeCustomerID)
		pick(&out.SubscriptionID, src.SubscriptionID)
		out.IsTrial = out.IsTrial || src.IsTrial
		if out.Timestamp == 0 {
			out.Timestamp = src.Timestamp
		}
	}
	return out
}

// FormError is the single message shown for a rejected submission.
type FormError struct {
	Message string
}

func (e *FormError) Error() string { return e.Message }

// ValidateSubmission runs the ordered form checks and returns the provisioning
// request on success. The resolved handoff email wins over the typed one.
func ValidateSubmission(form AccountForm, h handoff.PaymentHandoff, placeholders bool) (*Request, error) {
	email := strings.TrimSpace(h.Email)
	if email == "" {
		email = strings.TrimSpace(form.Email)
	}

	if email == "" || !h.HasPaymentDetails() {
		if placeholders {
			return nil, &FormError{Message: MsgPaymentNotLoaded}
		}
		return nil, &FormError{Message: MsgMissingPayment}
	}
	if !ValidEmail(email) {
		return nil, &FormError{Message: fmt.Sprintf("Invalid email format: %s", email)}
	}
	if strings.TrimSpace(form.Firstname) == "" {
		return nil, &FormError{Message: MsgFirstNameRequired}
	}
	if strings.TrimSpace(form.Lastname) == "" {
		return nil, &FormError{Message: MsgLastNameRequired}
	}
	if len([]rune(form.Password)) < 6 {
		return nil, &FormError{Message: MsgPasswordTooShort}
	}
	if form.Password != form.ConfirmPassword {
		return nil, &FormError{Message: MsgPasswordsDontMatch}
	}

	return &Request{
		Firstname:            strings.TrimSpace(form.Firstname),
		Lastname:             strings.TrimSpace(form.Lastname),
		Email:                email,
		Passwd:               form.Password,
		PlanTier:             h.PlanID,
		StripeCustomerID:     h.StripeCustomerID,
		StripeSubscriptionID: h.SubscriptionID,
		IsTrial:              h.IsTrial,
	}, nil
}
