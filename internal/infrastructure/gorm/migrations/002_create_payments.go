package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "002_create_payments",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.Payment{})
		},
	})
}
