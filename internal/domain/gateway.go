package domain

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// InitializeIntent carries everything an adapter needs to open an attempt
// at its gateway. Card data never appears here; the gateway collects it on
// its own pages.
type InitializeIntent struct {
	PaymentReference  string
	AmountMinor       int64
	Currency          string
	CustomerEmail     string
	IdempotencyKey    string
	TransferReference string
	CallbackURL       string
}

// BankInstructions is the handle returned by the bank-transfer adapter in
// place of a redirect URL.
type BankInstructions struct {
	BankName          string `json:"bank_name"`
	AccountName       string `json:"account_name"`
	AccountNumber     string `json:"account_number"`
	TransferReference string `json:"transfer_reference"`
}

type GatewayHandle struct {
	RedirectURL      string
	Instructions     *BankInstructions
	GatewayReference string
	Raw              []byte
}

type VerifyResult struct {
	Status      GatewayStatus
	AmountMinor int64
	Currency    string
	Raw         []byte
}

type RefundResult struct {
	Status GatewayStatus
	Raw    []byte
}

// GatewayAdapter is the uniform contract over card, wallet and manual
// bank-transfer gateways.
type GatewayAdapter interface {
	Method() PaymentMethod
	Initialize(ctx context.Context, intent InitializeIntent) (*GatewayHandle, error)
	Verify(ctx context.Context, gatewayReference string) (*VerifyResult, error)
	Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*RefundResult, error)
	ParseWebhook(headers http.Header, body []byte) (*WebhookEvent, error)
}
