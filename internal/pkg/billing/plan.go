package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/SuedeSignup/internal/pkg/env"
)

type Plan string

const (
	PlanHobby        Plan = "hobby"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanBusiness     Plan = "business"
)

// Plans lists the tiers in display order.
var Plans = []Plan{PlanHobby, PlanStarter, PlanProfessional, PlanBusiness}

type BillingPeriod string

const (
	PeriodMonthly BillingPeriod = "monthly"
	PeriodAnnual  BillingPeriod = "annual"
)

var Periods = []BillingPeriod{PeriodMonthly, PeriodAnnual}

// TrialDays is the free trial granted to the eligible plan.
const TrialDays = 28

func normalizePlan(plan string) (Plan, bool) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(plan))); p {
	case PlanHobby, PlanStarter, PlanProfessional, PlanBusiness:
		return p, true
	default:
		return "", false
	}
}

func normalizePeriod(period string) (BillingPeriod, bool) {
	switch p := BillingPeriod(strings.ToLower(strings.TrimSpace(period))); p {
	case PeriodMonthly, PeriodAnnual:
		return p, true
	default:
		return "", false
	}
}

// IsPlanTier reports whether tier names one of the four plans.
func IsPlanTier(tier string) bool {
	_, ok := normalizePlan(tier)
	return ok
}

// HasTrial reports trial eligibility. Only the hobby plan billed monthly
// qualifies; the match is exact.
func HasTrial(planID, billingPeriod string) bool {
	return planID == string(PlanHobby) && billingPeriod == string(PeriodMonthly)
}

// TrialEnd returns the Unix timestamp TrialDays whole days after now.
func TrialEnd(now time.Time) int64 {
	return now.Unix() + int64(TrialDays)*24*60*60
}

// PriceCatalog maps plan and billing period to a Stripe price id.
type PriceCatalog map[Plan]map[BillingPeriod]string

// PriceEnvKey is the environment variable holding the price id for a plan/period.
func PriceEnvKey(plan Plan, period BillingPeriod) string {
	return fmt.Sprintf("STRIPE_%s_%s_PRICE_ID", strings.ToUpper(string(plan)), strings.ToUpper(string(period)))
}

// PriceEnvKeys lists all eight price variables.
func PriceEnvKeys() []string {
	keys := make([]string, 0, len(Plans)*len(Periods))
	for _, plan := range Plans {
		for _, period := range Periods {
			keys = append(keys, PriceEnvKey(plan, period))
		}
	}
	return keys
}

func NewPriceCatalogFromEnv() PriceCatalog {
	catalog := make(PriceCatalog, len(Plans))
	for _, plan := range Plans {
		catalog[plan] = make(map[BillingPeriod]string, len(Periods))
		for _, period := range Periods {
			catalog[plan][period] = strings.TrimSpace(env.GetEnv(PriceEnvKey(plan, period), ""))
		}
	}
	return catalog
}

// PriceID returns the configured price id, empty when unknown.
func (c PriceCatalog) PriceID(plan, period string) string {
	p, ok := normalizePlan(plan)
	if !ok {
		return ""
	}
	bp, ok := normalizePeriod(period)
	if !ok {
		return ""
	}
	return c[p][bp]
}

// PlanOffer is one row of the plan selection data.
type PlanOffer struct {
	Plan           Plan   `json:"plan"`
	MonthlyPriceID string `json:"monthlyPriceId"`
	AnnualPriceID  string `json:"annualPriceId"`
	MonthlyTrial   bool   `json:"monthlyTrial"`
	TrialDays      int    `json:"trialDays,omitempty"`
}

// Offers returns the catalog in display order.
func (c PriceCatalog) Offers() []PlanOffer {
	offers := make([]PlanOffer, 0, len(Plans))
	for _, plan := range Plans {
		offer := PlanOffer{
			Plan:           plan,
			MonthlyPriceID: c[plan][PeriodMonthly],
			AnnualPriceID:  c[plan][PeriodAnnual],
			MonthlyTrial:   HasTrial(string(plan), string(PeriodMonthly)),
		}
		if offer.MonthlyTrial {
			offer.TrialDays = TrialDays
		}
		offers = append(offers, offer)
	}
	return offers
}
