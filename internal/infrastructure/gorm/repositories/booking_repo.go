package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
)

type BookingRepo struct {
	db *gorm.DB
}

func NewBookingRepo(db *gorm.DB) domain.BookingRepository {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) conn(ctx context.Context) *gorm.DB {
	return gormdb.ExtractTx(ctx, r.db).WithContext(ctx)
}

func (r *BookingRepo) CreateInTx(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *BookingRepo) ReferenceExistsInTx(ctx context.Context, tx *gorm.DB, reference string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("reference = ?", reference).
		Count(&count).Error
	return count > 0, err
}

func (r *BookingRepo) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var booking domain.Booking
	err := r.conn(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*domain.Booking, error) {
	var booking domain.Booking
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepo) UpdateInTx(ctx context.Context, tx *gorm.DB, booking *domain.Booking) error {
	return tx.WithContext(ctx).Save(booking).Error
}

func (r *BookingRepo) FindStale(ctx context.Context, statuses []domain.BookingStatus, olderThan time.Time) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.conn(ctx).
		Where("status IN ? AND created_at < ?", statuses, olderThan).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepo) FindStartingBetween(ctx context.Context, status domain.BookingStatus, from, to time.Time) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.conn(ctx).
		Where("status = ? AND start_date >= ? AND start_date < ?", status, from, to).
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepo) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	type row struct {
		Status domain.BookingStatus
		Count  int64
	}
	var rows []row
	err := r.conn(ctx).
		Model(&domain.Booking{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.BookingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
