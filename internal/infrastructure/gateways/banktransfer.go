package gateways

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// BankTransferAdapter never calls out. Initialize hands back the primary
// bank account plus the freshly minted transfer reference; verification
// happens when an admin approves an uploaded proof.
type BankTransferAdapter struct {
	accounts domain.BankAccountRepository
	fallback domain.BankInstructions
}

func NewBankTransferAdapter(accounts domain.BankAccountRepository, fallback domain.BankInstructions) *BankTransferAdapter {
	return &BankTransferAdapter{accounts: accounts, fallback: fallback}
}

func (a *BankTransferAdapter) Method() domain.PaymentMethod {
	return domain.MethodBankTransfer
}

func (a *BankTransferAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	instructions := a.fallback
	account, err := a.accounts.FindPrimary(ctx)
	if err != nil {
		return nil, err
	}
	if account != nil {
		instructions = domain.BankInstructions{
			BankName:      account.BankName,
			AccountName:   account.AccountName,
			AccountNumber: account.AccountNumber,
		}
	}
	instructions.TransferReference = intent.TransferReference

	return &domain.GatewayHandle{
		Instructions:     &instructions,
		GatewayReference: intent.TransferReference,
	}, nil
}

func (a *BankTransferAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	return &domain.VerifyResult{Status: domain.GatewayStatusPending}, nil
}

func (a *BankTransferAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	return &domain.RefundResult{Status: domain.GatewayStatusSuccess}, nil
}

func (a *BankTransferAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	return nil, domain.ErrGatewayProtocol("bank_transfer", "bank transfers have no webhooks")
}
