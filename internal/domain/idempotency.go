package domain

import "time"

type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "PROCESSING"
	IdempotencyStatusCompleted  IdempotencyStatus = "COMPLETED"
)

// IdempotencyRecord guarantees that repeated payment initializations with
// the same key return the previously created payment.
type IdempotencyRecord struct {
	Key                string            `json:"key" gorm:"primaryKey;type:varchar(64)"`
	RequestFingerprint string            `json:"request_fingerprint" gorm:"type:varchar(64);not null"`
	PaymentID          string            `json:"payment_id,omitempty" gorm:"type:varchar(36)"`
	ResponseBody       []byte            `json:"-" gorm:"type:jsonb"`
	Status             IdempotencyStatus `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt          time.Time         `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt          time.Time         `json:"expires_at" gorm:"index;not null"`
}

func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}
