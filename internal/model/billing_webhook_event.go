package model

import (
	"time"
)

type BillingWebhookEvent struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:30;not null;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	ProviderEventID string     `gorm:"size:128;not null;uniqueIndex:idx_webhook_provider_event" json:"provider_event_id"`
	EventType       string     `gorm:"size:64;not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:text" json:"-"`
	SignatureValid  bool       `gorm:"default:false" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"index" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (BillingWebhookEvent) TableName() string {
	return "billing_webhook_events"
}
