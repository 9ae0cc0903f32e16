package repositories

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
)

type CurrencyRepo struct {
	db *gorm.DB
}

func NewCurrencyRepo(db *gorm.DB) domain.CurrencyRepository {
	return &CurrencyRepo{db: db}
}

func (r *CurrencyRepo) conn(ctx context.Context) *gorm.DB {
	return gormdb.ExtractTx(ctx, r.db).WithContext(ctx)
}

func (r *CurrencyRepo) FindByCode(ctx context.Context, code string) (*domain.Currency, error) {
	var currency domain.Currency
	err := r.conn(ctx).Where("code = ?", code).First(&currency).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *CurrencyRepo) FindActive(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := r.conn(ctx).Where("active = ?", true).Order("code").Find(&currencies).Error
	return currencies, err
}

func (r *CurrencyRepo) ReplaceRates(ctx context.Context, rates map[string]decimal.Decimal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for code, rate := range rates {
			if code == domain.BaseCurrency {
				continue
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"rate_to_base", "updated_at"}),
			}).Create(&domain.Currency{
				Code:       code,
				RateToBase: rate,
				Active:     true,
			}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CurrencyRepo) Upsert(ctx context.Context, currency *domain.Currency) error {
	return r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(currency).Error
}
