package migrations

import (
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func init() {
	Register(Migration{
		ID: "003_create_payment_proofs",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&domain.PaymentProof{})
		},
	})
}
