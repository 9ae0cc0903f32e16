package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "008_create_bank_accounts",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.BankAccount{})
		},
	})
}
