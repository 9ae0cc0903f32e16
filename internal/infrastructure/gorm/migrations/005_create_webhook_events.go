package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "005_create_webhook_events",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.ProcessedWebhookEvent{})
		},
	})
}
