package gormdb

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func NewTestConnection() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&domain.Booking{},
		&domain.Payment{},
		&domain.PaymentProof{},
		&domain.Currency{},
		&domain.ProcessedWebhookEvent{},
		&domain.OutboxEvent{},
		&domain.IdempotencyRecord{},
		&domain.BankAccount{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
