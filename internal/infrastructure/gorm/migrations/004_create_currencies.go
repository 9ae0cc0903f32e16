package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "004_create_currencies",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.Currency{})
		},
	})
}
