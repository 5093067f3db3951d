package handoff

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/SuedeSignup/app/models"
)

// Ledger persists handoff state per subscription so provisioning happens at
// most once regardless of which browser submits the form.
type Ledger interface {
	// Confirm records a confirmed payment. The returned state is
	// StateProvisioned when the subscription was already provisioned.
	Confirm(ctx context.Context, h PaymentHandoff, checkoutSessionID string) (State, error)
	// Lookup returns the current state, StateNone when no row exists.
	Lookup(ctx context.Context, subscriptionID string) (State, error)
	// MarkProvisioned moves the handoff to StateProvisioned.
	MarkProvisioned(ctx context.Context, h PaymentHandoff) error
}

type gormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLedger creates a ledger backed by the checkout_handoffs table.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db, now: time.Now}
}

func (l *gormLedger) Confirm(ctx context.Context, h PaymentHandoff, checkoutSessionID string) (State, error) {
	subID := strings.TrimSpace(h.SubscriptionID)
	if subID == "" {
		return StateNone, errors.New("subscription_id is required")
	}

	var result State
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, subID, h)
		if err != nil {
			return err
		}

		next, err := Transition(State(row.State), TriggerPaymentConfirmed)
		if err != nil {
			return err
		}
		result = next
		if next == StateProvisioned {
			return nil
		}

		return tx.Model(row).Updates(map[string]interface{}{
			"checkout_session_id": strings.TrimSpace(checkoutSessionID),
			"stripe_customer_id":  strings.TrimSpace(h.StripeCustomerID),
			"email":               strings.TrimSpace(h.Email),
			"plan_id":             h.PlanID,
			"billing_period":      h.BillingPeriod,
			"is_trial":            h.IsTrial,
			"state":               string(next),
			"confirmed_at":        l.now(),
		}).Error
	})
	if err != nil {
		return StateNone, err
	}
	return result, nil
}

func (l *gormLedger) Lookup(ctx context.Context, subscriptionID string) (State, error) {
	var row models.CheckoutHandoff
	err := l.db.WithContext(ctx).
		Where("subscription_id = ?", strings.TrimSpace(subscriptionID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StateNone, nil
	}
	if err != nil {
		return StateNone, err
	}
	return State(row.State), nil
}

func (l *gormLedger) MarkProvisioned(ctx context.Context, h PaymentHandoff) error {
	subID := strings.TrimSpace(h.SubscriptionID)
	if subID == "" {
		return errors.New("subscription_id is required")
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockRow(tx, subID, h)
		if err != nil {
			return err
		}

		next, err := Transition(State(row.State), TriggerProvisioned)
		if err != nil {
			return err
		}

		return tx.Model(row).Updates(map[string]interface{}{
			"state":          string(next),
			"provisioned_at": l.now(),
		}).Error
	})
}

// lockRow makes sure the subscription has a row and locks it. The insert is a
// no-op when the row exists, so concurrent confirmations queue on the unique
// key instead of racing to create it.
func lockRow(tx *gorm.DB, subscriptionID string, h PaymentHandoff) (*models.CheckoutHandoff, error) {
	seed := models.CheckoutHandoff{
		SubscriptionID:   subscriptionID,
		StripeCustomerID: strings.TrimSpace(h.StripeCustomerID),
		Email:            strings.TrimSpace(h.Email),
		PlanID:           h.PlanID,
		BillingPeriod:    h.BillingPeriod,
		IsTrial:          h.IsTrial,
		State:            string(StateNone),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription_id"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return nil, err
	}

	var row models.CheckoutHandoff
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subscription_id = ?", subscriptionID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
