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

type PaymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepo(db *gorm.DB) domain.PaymentRepository {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) conn(ctx context.Context) *gorm.DB {
	return gormdb.ExtractTx(ctx, r.db).WithContext(ctx)
}

func (r *PaymentRepo) CreateInTx(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepo) ReferenceExistsInTx(ctx context.Context, tx *gorm.DB, reference string) (bool, error) {
	return r.exists(ctx, tx, "reference = ?", reference)
}

func (r *PaymentRepo) TransferReferenceExistsInTx(ctx context.Context, tx *gorm.DB, transferRef string) (bool, error) {
	return r.exists(ctx, tx, "transfer_reference = ?", transferRef)
}

func (r *PaymentRepo) exists(ctx context.Context, tx *gorm.DB, cond, arg string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.Payment{}).
		Where(cond, arg).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepo) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.findOne(r.conn(ctx), "id = ?", id)
}

func (r *PaymentRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*domain.Payment, error) {
	return r.findOne(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *PaymentRepo) UpdateInTx(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	return tx.WithContext(ctx).Save(payment).Error
}

func (r *PaymentRepo) FindByGatewayReference(ctx context.Context, gatewayRef string) (*domain.Payment, error) {
	return r.findOne(r.conn(ctx), "gateway_reference = ?", gatewayRef)
}

func (r *PaymentRepo) FindByTransferReference(ctx context.Context, transferRef string) (*domain.Payment, error) {
	return r.findOne(r.conn(ctx), "transfer_reference = ?", transferRef)
}

func (r *PaymentRepo) FindByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.conn(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at").
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepo) CompletedExistsInTx(ctx context.Context, tx *gorm.DB, bookingID string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("booking_id = ? AND status = ?", bookingID, domain.PaymentStatusCompleted).
		Count(&count).Error
	return count > 0, err
}

func (r *PaymentRepo) FindInStatusBetween(ctx context.Context, status domain.PaymentStatus, olderThan, youngerThan time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.conn(ctx).
		Where("status = ? AND created_at < ? AND created_at > ?", status, olderThan, youngerThan).
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepo) FindInStatusOlderThan(ctx context.Context, status domain.PaymentStatus, olderThan time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.conn(ctx).
		Where("status = ? AND created_at < ?", status, olderThan).
		Find(&payments).Error
	return payments, err
}

func (r *PaymentRepo) findOne(q *gorm.DB, cond string, arg string) (*domain.Payment, error) {
	var payment domain.Payment
	err := q.Where(cond, arg).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
