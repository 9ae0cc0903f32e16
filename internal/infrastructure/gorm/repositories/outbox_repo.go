package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

type OutboxRepo struct {
	db *gorm.DB
}

func NewOutboxRepo(db *gorm.DB) domain.OutboxRepository {
	return &OutboxRepo{db: db}
}

func (r *OutboxRepo) CreateInTx(ctx context.Context, tx *gorm.DB, event *domain.OutboxEvent) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *OutboxRepo) FindUndelivered(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	var events []domain.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("delivered_at IS NULL").
		Order("sequence").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *OutboxRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Update("delivered_at", at).Error
}

func (r *OutboxRepo) RecordAttempt(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *OutboxRepo) Exists(ctx context.Context, name, bookingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OutboxEvent{}).
		Where("name = ? AND booking_id = ?", name, bookingID).
		Count(&count).Error
	return count > 0, err
}
