package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "001_create_bookings",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.Booking{})
		},
	})
}
