package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BookingRepository interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, booking *Booking) error
	ReferenceExistsInTx(ctx context.Context, tx *gorm.DB, reference string) (bool, error)
	FindByID(ctx context.Context, id string) (*Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Booking, error)
	UpdateInTx(ctx context.Context, tx *gorm.DB, booking *Booking) error
	FindStale(ctx context.Context, statuses []BookingStatus, olderThan time.Time) ([]Booking, error)
	FindStartingBetween(ctx context.Context, status BookingStatus, from, to time.Time) ([]Booking, error)
	CountByStatus(ctx context.Context) (map[BookingStatus]int64, error)
}

type PaymentRepository interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, payment *Payment) error
	ReferenceExistsInTx(ctx context.Context, tx *gorm.DB, reference string) (bool, error)
	TransferReferenceExistsInTx(ctx context.Context, tx *gorm.DB, transferRef string) (bool, error)
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*Payment, error)
	UpdateInTx(ctx context.Context, tx *gorm.DB, payment *Payment) error
	FindByGatewayReference(ctx context.Context, gatewayRef string) (*Payment, error)
	FindByTransferReference(ctx context.Context, transferRef string) (*Payment, error)
	FindByBooking(ctx context.Context, bookingID string) ([]Payment, error)
	CompletedExistsInTx(ctx context.Context, tx *gorm.DB, bookingID string) (bool, error)
	FindInStatusBetween(ctx context.Context, status PaymentStatus, olderThan, youngerThan time.Time) ([]Payment, error)
	FindInStatusOlderThan(ctx context.Context, status PaymentStatus, olderThan time.Time) ([]Payment, error)
}

type ProofRepository interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, proof *PaymentProof) error
	FindByID(ctx context.Context, id string) (*PaymentProof, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*PaymentProof, error)
	UpdateInTx(ctx context.Context, tx *gorm.DB, proof *PaymentProof) error
	FindByPayment(ctx context.Context, paymentID string) ([]PaymentProof, error)
}

type CurrencyRepository interface {
	FindByCode(ctx context.Context, code string) (*Currency, error)
	FindActive(ctx context.Context) ([]Currency, error)
	// ReplaceRates swaps the whole rate table in one transaction. Codes
	// absent from the map keep their previous rate.
	ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal) error
	Upsert(ctx context.Context, currency *Currency) error
}

type WebhookEventRepository interface {
	// MarkProcessedInTx inserts the (gateway, event id) pair and reports
	// whether this delivery is the first one.
	MarkProcessedInTx(ctx context.Context, tx *gorm.DB, gateway, eventID string) (bool, error)
}

type IdempotencyRepository interface {
	FindByKey(ctx context.Context, key string) (*IdempotencyRecord, error)
	FindByKeyForUpdate(ctx context.Context, tx *gorm.DB, key string) (*IdempotencyRecord, error)
	CreateInTx(ctx context.Context, tx *gorm.DB, record *IdempotencyRecord) error
	UpdateInTx(ctx context.Context, tx *gorm.DB, record *IdempotencyRecord) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type OutboxRepository interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, event *OutboxEvent) error
	FindUndelivered(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	RecordAttempt(ctx context.Context, id string) error
	Exists(ctx context.Context, name, bookingID string) (bool, error)
}

type BankAccountRepository interface {
	FindPrimary(ctx context.Context) (*BankAccount, error)
	FindAll(ctx context.Context) ([]BankAccount, error)
	Upsert(ctx context.Context, account *BankAccount) error
}

// RateSource pulls fresh exchange rates quoted as base-currency units per
// one unit of each quoted currency.
type RateSource interface {
	Fetch(ctx context.Context) (map[string]decimal.Decimal, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

// Notifier is the outbound notification collaborator. Delivery is
// at-least-once; consumers dedup on the event id.
type Notifier interface {
	Send(ctx context.Context, event OutboxEvent) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
