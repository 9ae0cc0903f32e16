package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventBookingCreated        = "booking.created"
	EventBookingPaymentPending = "booking.payment_pending"
	EventBookingConfirmed      = "booking.confirmed"
	EventBookingCancelled      = "booking.cancelled"
	EventBookingCompleted      = "booking.completed"
	EventBookingRefunded       = "booking.refunded"
	EventBookingReminder       = "booking.reminder"
	EventProofUploaded         = "payment.proof_uploaded"
	EventProofVerified         = "payment.proof_verified"
	EventPaymentFailed         = "payment.failed"
	EventDailyReport           = "report.daily"
)

// OutboxEvent is written in the same transaction as the state transition
// that caused it and delivered to the notifier at least once.
type OutboxEvent struct {
	ID          string         `json:"event_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string         `json:"name" gorm:"type:varchar(50);index;not null"`
	Sequence    int64          `json:"sequence" gorm:"uniqueIndex;not null"`
	BookingID   string         `json:"booking_id,omitempty" gorm:"type:varchar(36);index"`
	PaymentID   string         `json:"payment_id,omitempty" gorm:"type:varchar(36)"`
	OwnerEmail  string         `json:"owner_email,omitempty" gorm:"type:varchar(200)"`
	Payload     datatypes.JSON `json:"payload,omitempty" gorm:"type:jsonb"`
	Attempts    int            `json:"attempts" gorm:"not null;default:0"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty" gorm:"index"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}
