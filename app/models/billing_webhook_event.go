package models

import "time"

const BillingProviderStripe = "stripe"

// BillingWebhookEvent is the receipt ledger for verified provider webhooks.
// A row is written before dispatch; ProcessedAt with an empty ProcessingError
// marks an event whose redelivery must not be dispatched again.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"type:varchar(191);not null;index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	Attempts        int        `gorm:"not null;default:0" json:"attempts"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Succeeded reports whether an earlier delivery was fully processed.
func (e *BillingWebhookEvent) Succeeded() bool {
	return e != nil && e.ProcessedAt != nil && e.ProcessingError == ""
}
