package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
)

type ProofRepo struct {
	db *gorm.DB
}

func NewProofRepo(db *gorm.DB) domain.ProofRepository {
	return &ProofRepo{db: db}
}

func (r *ProofRepo) conn(ctx context.Context) *gorm.DB {
	return gormdb.ExtractTx(ctx, r.db).WithContext(ctx)
}

func (r *ProofRepo) CreateInTx(ctx context.Context, tx *gorm.DB, proof *domain.PaymentProof) error {
	return tx.WithContext(ctx).Create(proof).Error
}

func (r *ProofRepo) FindByID(ctx context.Context, id string) (*domain.PaymentProof, error) {
	var proof domain.PaymentProof
	err := r.conn(ctx).Where("id = ?", id).First(&proof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *ProofRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*domain.PaymentProof, error) {
	var proof domain.PaymentProof
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&proof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *ProofRepo) UpdateInTx(ctx context.Context, tx *gorm.DB, proof *domain.PaymentProof) error {
	return tx.WithContext(ctx).Save(proof).Error
}

func (r *ProofRepo) FindByPayment(ctx context.Context, paymentID string) ([]domain.PaymentProof, error) {
	var proofs []domain.PaymentProof
	err := r.conn(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at").
		Find(&proofs).Error
	return proofs, err
}
