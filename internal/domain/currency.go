package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the canonical currency all amounts are compared and
// summed in.
const BaseCurrency = "NGN"

type Currency struct {
	Code       string          `json:"code" gorm:"primaryKey;type:varchar(3)"`
	Symbol     string          `json:"symbol" gorm:"type:varchar(8)"`
	RateToBase decimal.Decimal `json:"rate_to_base" gorm:"type:decimal(20,6);not null"`
	Active     bool            `json:"active" gorm:"not null;default:true"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Currency) TableName() string {
	return "currencies"
}
