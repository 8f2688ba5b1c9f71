package models

import "time"

// WebhookEvent stores gateway webhook payloads with deduplication metadata.
// The (payment_gateway, gateway_event_id) unique key makes at-least-once
// delivery converge: the second insert of the same event is a no-op.
type WebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PaymentGateway  string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_gateway_event,unique,priority:1;index" json:"payment_gateway"`
	GatewayEventID  string     `gorm:"type:varchar(191);not null;default:'';index:ux_webhook_events_gateway_event,unique,priority:2" json:"gateway_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	TokenValid      bool       `gorm:"default:false;index" json:"token_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
