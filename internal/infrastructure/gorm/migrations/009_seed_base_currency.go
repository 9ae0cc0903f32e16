package migrations

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// The base currency row must always exist with a rate of exactly 1.
func init() {
	Register(Migration{
		ID: "009_seed_base_currency",
		Migrate: func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.Currency{
				Code:       domain.BaseCurrency,
				Symbol:     "₦",
				RateToBase: decimal.NewFromInt(1),
				Active:     true,
			}).Error
		},
	})
}
