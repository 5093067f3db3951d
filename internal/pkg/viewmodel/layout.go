package viewmodel

import (
	"net/url"
	"strconv"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/constants"
)

// Layout is what views.Layout reads.
type Layout struct {
	Title           string
	RedirectURL     string
	RedirectSeconds int
}

// RefreshContent is the meta refresh value for a pending redirect.
func (l Layout) RefreshContent() string {
	return strconv.Itoa(l.RedirectSeconds) + ";url=" + l.RedirectURL
}

// AccountCreation backs the account creation form.
type AccountCreation struct {
	Layout
	FormAction    string
	CSRF          string
	Email         string
	NeedsEmail    bool
	Plan          string
	PlanLabel     string
	BillingPeriod string
	IsTrial       bool
	TrialDays     int
	Error         string
	Conflict      bool
	Firstname     string
	Lastname      string
}

func (p AccountCreation) LoginURL() string {
	if p.Email == "" {
		return constants.LoginRoute
	}
	return constants.LoginRoute + "?email=" + url.QueryEscape(p.Email)
}

func (p AccountCreation) DifferentEmailURL() string {
	return p.FormAction + "?use_different_email=1"
}

// AccountCreated backs the confirmation page shown before the redirect.
type AccountCreated struct {
	Layout
	Message string
}
