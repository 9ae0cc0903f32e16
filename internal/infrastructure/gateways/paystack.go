package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const paystackBaseURL = "https://api.paystack.co"

type PaystackAdapter struct {
	secretKey string
	client    *http.Client
	baseURL   string
}

func NewPaystackAdapter(secretKey string, timeout time.Duration) *PaystackAdapter {
	return &PaystackAdapter{
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
		baseURL:   paystackBaseURL,
	}
}

func (a *PaystackAdapter) Method() domain.PaymentMethod {
	return domain.MethodCardPaystack
}

func (a *PaystackAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	payload := map[string]interface{}{
		"email":     intent.CustomerEmail,
		"amount":    intent.AmountMinor,
		"currency":  intent.Currency,
		"reference": intent.PaymentReference,
	}
	if intent.CallbackURL != "" {
		payload["callback_url"] = intent.CallbackURL
	}

	var out struct {
		Status bool `json:"status"`
		Data   struct {
			AuthorizationURL string `json:"authorization_url"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	raw, err := doJSON(ctx, a.client, "paystack", http.MethodPost, a.baseURL+"/transaction/initialize", a.authHeaders(), nil, payload, &out)
	if err != nil {
		return nil, err
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, domain.ErrGatewayProtocol("paystack", "initialize rejected")
	}

	return &domain.GatewayHandle{
		RedirectURL:      out.Data.AuthorizationURL,
		GatewayReference: out.Data.Reference,
		Raw:              raw,
	}, nil
}

func (a *PaystackAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	var out struct {
		Status bool `json:"status"`
		Data   struct {
			Status   string `json:"status"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	raw, err := doJSON(ctx, a.client, "paystack", http.MethodGet, a.baseURL+"/transaction/verify/"+url.PathEscape(gatewayReference), a.authHeaders(), nil, nil, &out)
	if err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, domain.ErrGatewayProtocol("paystack", "verify rejected")
	}

	return &domain.VerifyResult{
		Status:      paystackStatus(out.Data.Status),
		AmountMinor: out.Data.Amount,
		Currency:    strings.ToUpper(out.Data.Currency),
		Raw:         raw,
	}, nil
}

func (a *PaystackAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	payload := map[string]interface{}{"transaction": gatewayReference}
	if amount != nil {
		payload["amount"] = toMinor(*amount)
	}

	var out struct {
		Status bool `json:"status"`
	}
	raw, err := doJSON(ctx, a.client, "paystack", http.MethodPost, a.baseURL+"/refund", a.authHeaders(), nil, payload, &out)
	if err != nil {
		return nil, err
	}

	status := domain.GatewayStatusPending
	if out.Status {
		status = domain.GatewayStatusSuccess
	}
	return &domain.RefundResult{Status: status, Raw: raw}, nil
}

// ParseWebhook checks X-Paystack-Signature: HMAC-SHA256 of the raw body
// under the secret key.
func (a *PaystackAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	signature := headers.Get("X-Paystack-Signature")
	if signature == "" {
		return nil, domain.ErrInvalidSignature("paystack")
	}

	mac := hmac.New(sha256.New, []byte(a.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domain.ErrInvalidSignature("paystack")
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64  `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.ErrGatewayProtocol("paystack", "malformed webhook body")
	}
	if event.Data.Reference == "" {
		return nil, domain.ErrGatewayProtocol("paystack", "webhook missing reference")
	}

	status := domain.GatewayStatusPending
	switch event.Event {
	case "charge.success":
		status = domain.GatewayStatusSuccess
	case "charge.failed":
		status = domain.GatewayStatusFailed
	}

	return &domain.WebhookEvent{
		EventID:          event.Event + ":" + event.Data.Reference,
		Event:            event.Event,
		GatewayReference: event.Data.Reference,
		Status:           status,
		AmountMinor:      event.Data.Amount,
		Currency:         strings.ToUpper(event.Data.Currency),
		Raw:              body,
	}, nil
}

func (a *PaystackAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.secretKey}
}

func paystackStatus(s string) domain.GatewayStatus {
	switch s {
	case "success":
		return domain.GatewayStatusSuccess
	case "failed", "abandoned", "reversed":
		return domain.GatewayStatusFailed
	default:
		return domain.GatewayStatusPending
	}
}
