package provisioning

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("suede_email", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

// ValidEmail applies the permissive shape check used across signup.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Request is the body of a provisioning call.
type Request struct {
	Firstname            string `json:"firstname" validate:"required"`
	Lastname             string `json:"lastname" validate:"required"`
	Email                string `json:"email" validate:"required,suede_email"`
	Passwd               string `json:"passwd" validate:"required,min=6"`
	PlanTier             string `json:"plan_tier" validate:"required,oneof=hobby starter professional business"`
	StripeCustomerID     string `json:"stripe_customer_id" validate:"required"`
	StripeSubscriptionID string `json:"stripe_subscription_id" validate:"required"`
	IsTrial              bool   `json:"is_trial"`
}

// ValidationError is a rejected input with a message safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Checks run in this order and the first failing one is reported.
var requestChecks = []struct {
	tag     string
	message string
}{
	{tag: "required", message: "Missing required fields"},
	{tag: "suede_email", message: "Invalid email format"},
	{tag: "min", message: "Password must be at least 6 characters"},
	{tag: "oneof", message: "Invalid plan tier"},
}

func (r *Request) normalize() {
	r.Firstname = strings.TrimSpace(r.Firstname)
	r.Lastname = strings.TrimSpace(r.Lastname)
	r.Email = strings.TrimSpace(r.Email)
	r.PlanTier = strings.TrimSpace(r.PlanTier)
	r.StripeCustomerID = strings.TrimSpace(r.StripeCustomerID)
	r.StripeSubscriptionID = strings.TrimSpace(r.StripeSubscriptionID)
}

// Validate normalizes r and reports the first failed check.
func (r *Request) Validate() error {
	r.normalize()
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, check := range requestChecks {
		for _, fe := range verrs {
			if fe.Tag() == check.tag {
				return &ValidationError{Message: check.message}
			}
		}
	}
	return &ValidationError{Message: verrs[0].Error()}
}
