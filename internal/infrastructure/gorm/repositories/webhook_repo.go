package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

type WebhookEventRepo struct {
	db *gorm.DB
}

func NewWebhookEventRepo(db *gorm.DB) domain.WebhookEventRepository {
	return &WebhookEventRepo{db: db}
}

func (r *WebhookEventRepo) MarkProcessedInTx(ctx context.Context, tx *gorm.DB, gateway, eventID string) (bool, error) {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.ProcessedWebhookEvent{Gateway: gateway, EventID: eventID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
