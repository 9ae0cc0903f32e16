package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

type BankAccountRepo struct {
	db *gorm.DB
}

func NewBankAccountRepo(db *gorm.DB) domain.BankAccountRepository {
	return &BankAccountRepo{db: db}
}

func (r *BankAccountRepo) FindPrimary(ctx context.Context) (*domain.BankAccount, error) {
	var account domain.BankAccount
	err := r.db.WithContext(ctx).Where("is_primary = ?", true).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *BankAccountRepo) FindAll(ctx context.Context) ([]domain.BankAccount, error) {
	var accounts []domain.BankAccount
	err := r.db.WithContext(ctx).Order("is_primary DESC, bank_name ASC").Find(&accounts).Error
	return accounts, err
}

func (r *BankAccountRepo) Upsert(ctx context.Context, account *domain.BankAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(account).Error
}
