package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "006_create_outbox_events",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.OutboxEvent{})
		},
	})
}
