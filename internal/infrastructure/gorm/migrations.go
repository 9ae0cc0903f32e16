package gormdb

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/migrations"
)

func RunMigrations(db *gorm.DB) error {
	return migrations.Run(db)
}
