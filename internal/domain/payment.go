package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentMethod string

const (
	MethodCardStripe      PaymentMethod = "CARD_STRIPE"
	MethodCardPaystack    PaymentMethod = "CARD_PAYSTACK"
	MethodCardFlutterwave PaymentMethod = "CARD_FLUTTERWAVE"
	MethodWalletPaypal    PaymentMethod = "WALLET_PAYPAL"
	MethodBankTransfer    PaymentMethod = "BANK_TRANSFER"
)

var ValidPaymentMethods = map[PaymentMethod]bool{
	MethodCardStripe:      true,
	MethodCardPaystack:    true,
	MethodCardFlutterwave: true,
	MethodWalletPaypal:    true,
	MethodBankTransfer:    true,
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
	PaymentStatusExpired    PaymentStatus = "EXPIRED"
)

type RefundStatus string

const (
	RefundStatusNone    RefundStatus = ""
	RefundStatusPartial RefundStatus = "PARTIAL"
	RefundStatusFull    RefundStatus = "FULL"
)

var allowedPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusExpired},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusExpired},
	PaymentStatusCompleted:  {PaymentStatusRefunded},
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, next := range allowedPaymentTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusExpired:
		return true
	}
	return false
}

type Payment struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BookingID         string          `json:"booking_id" gorm:"type:varchar(36);index;not null"`
	Reference         string          `json:"reference" gorm:"type:varchar(16);uniqueIndex;not null"`
	Method            PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Status            PaymentStatus   `json:"status" gorm:"type:varchar(20);index;not null"`
	Currency          string          `json:"currency" gorm:"type:varchar(3);not null"`
	AmountDisplay     decimal.Decimal `json:"amount_display" gorm:"type:decimal(20,2);not null"`
	AmountBase        decimal.Decimal `json:"amount_base" gorm:"type:decimal(20,2);not null"`
	GatewayReference  string          `json:"gateway_reference,omitempty" gorm:"type:varchar(100);index"`
	TransferReference string          `json:"transfer_reference,omitempty" gorm:"type:varchar(16);index"`
	GatewayResponse   datatypes.JSON  `json:"-" gorm:"type:jsonb"`
	FailReason        string          `json:"fail_reason,omitempty" gorm:"type:text"`
	RefundStatus      RefundStatus    `json:"refund_status,omitempty" gorm:"type:varchar(10)"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount" gorm:"type:decimal(20,2);default:0"`
	RefundReason      string          `json:"refund_reason,omitempty" gorm:"type:text"`
	RefundedAt        *time.Time      `json:"refunded_at,omitempty"`
	ProofURL          string          `json:"proof_url,omitempty" gorm:"type:varchar(500)"`
	CreatedAt         time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Proofs []PaymentProof `json:"proofs,omitempty" gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
}

func (Payment) TableName() string {
	return "payments"
}

const FailReasonGatewayMismatch = "gateway_mismatch"
