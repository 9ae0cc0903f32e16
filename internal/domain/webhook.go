package domain

import "time"

type GatewayStatus string

const (
	GatewayStatusSuccess GatewayStatus = "SUCCESS"
	GatewayStatusPending GatewayStatus = "PENDING"
	GatewayStatusFailed  GatewayStatus = "FAILED"
)

// WebhookEvent is the normalized form of a gateway webhook delivery.
type WebhookEvent struct {
	EventID          string
	Event            string
	GatewayReference string
	Status           GatewayStatus
	AmountMinor      int64
	Currency         string
	Raw              []byte
}

// ProcessedWebhookEvent records an applied webhook so duplicate deliveries
// are acknowledged without side effects.
type ProcessedWebhookEvent struct {
	Gateway     string    `json:"gateway" gorm:"primaryKey;type:varchar(20)"`
	EventID     string    `json:"event_id" gorm:"primaryKey;type:varchar(100)"`
	ProcessedAt time.Time `json:"processed_at" gorm:"autoCreateTime"`
}

func (ProcessedWebhookEvent) TableName() string {
	return "processed_webhook_events"
}
