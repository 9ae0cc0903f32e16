package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "007_create_idempotency_records",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.IdempotencyRecord{})
		},
	})
}
