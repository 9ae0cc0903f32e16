package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BookingType string

const (
	BookingTypeHotel BookingType = "HOTEL"
	BookingTypeCar   BookingType = "CAR"
)

var ValidBookingTypes = map[BookingType]bool{
	BookingTypeHotel: true,
	BookingTypeCar:   true,
}

type BookingStatus string

const (
	BookingStatusPending        BookingStatus = "PENDING"
	BookingStatusPaymentPending BookingStatus = "PAYMENT_PENDING"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
	BookingStatusRefunded       BookingStatus = "REFUNDED"
)

type TripStatus string

const (
	TripStatusNotStarted TripStatus = "NOT_STARTED"
	TripStatusOngoing    TripStatus = "ONGOING"
	TripStatusDone       TripStatus = "DONE"
)

var allowedBookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:        {BookingStatusPaymentPending, BookingStatusCancelled},
	BookingStatusPaymentPending: {BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled},
	BookingStatusConfirmed:      {BookingStatusCompleted, BookingStatusRefunded},
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, next := range allowedBookingTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	switch s {
	case BookingStatusCancelled, BookingStatusCompleted, BookingStatusRefunded:
		return true
	}
	return false
}

type Booking struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Reference     string          `json:"reference" gorm:"type:varchar(16);uniqueIndex;not null"`
	OwnerID       string          `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	Type          BookingType     `json:"type" gorm:"type:varchar(10);not null"`
	Payload       datatypes.JSON  `json:"payload,omitempty" gorm:"type:jsonb"`
	Currency      string          `json:"currency" gorm:"type:varchar(3);not null"`
	AmountDisplay decimal.Decimal `json:"amount_display" gorm:"type:decimal(20,2);not null"`
	AmountBase    decimal.Decimal `json:"amount_base" gorm:"type:decimal(20,2);not null"`
	StartDate     time.Time       `json:"start_date" gorm:"not null"`
	EndDate       time.Time       `json:"end_date" gorm:"not null"`
	CustomerName  string          `json:"customer_name" gorm:"type:varchar(200)"`
	CustomerEmail string          `json:"customer_email" gorm:"type:varchar(200)"`
	Status        BookingStatus   `json:"status" gorm:"type:varchar(20);index;not null"`
	TripStatus    TripStatus      `json:"trip_status,omitempty" gorm:"type:varchar(20)"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

func (Booking) TableName() string {
	return "bookings"
}
