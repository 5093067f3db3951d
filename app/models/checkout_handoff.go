package models

import "time"

// CheckoutHandoff is the server-side record of a paid checkout waiting for
// (or done with) account provisioning. One row per Stripe subscription.
type CheckoutHandoff struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	SubscriptionID    string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"subscription_id"`
	CheckoutSessionID string     `gorm:"type:varchar(191);not null;default:'';index" json:"checkout_session_id"`
	StripeCustomerID  string     `gorm:"type:varchar(191);not null;default:''" json:"stripe_customer_id"`
	Email             string     `gorm:"type:varchar(255);not null;default:''" json:"email"`
	PlanID            string     `gorm:"type:varchar(32);not null;default:''" json:"plan_id"`
	BillingPeriod     string     `gorm:"type:varchar(16);not null;default:''" json:"billing_period"`
	IsTrial           bool       `gorm:"not null;default:false" json:"is_trial"`
	State             string     `gorm:"type:varchar(32);not null;index" json:"state"`
	ConfirmedAt       *time.Time `gorm:"type:timestamp;default:null" json:"confirmed_at,omitempty"`
	ProvisionedAt     *time.Time `gorm:"type:timestamp;default:null" json:"provisioned_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
