package domain

import "time"

// BankAccount holds the transfer instructions handed to payers who choose
// the manual bank-transfer method.
type BankAccount struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BankName      string    `json:"bank_name" gorm:"type:varchar(100);not null"`
	AccountName   string    `json:"account_name" gorm:"type:varchar(200);not null"`
	AccountNumber string    `json:"account_number" gorm:"type:varchar(30);not null"`
	Currency      string    `json:"currency" gorm:"type:varchar(3);not null"`
	Primary       bool      `json:"primary" gorm:"column:is_primary;not null;default:false"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (BankAccount) TableName() string {
	return "bank_accounts"
}
