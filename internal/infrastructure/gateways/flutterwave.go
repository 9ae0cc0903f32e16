package gateways

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const flutterwaveBaseURL = "https://api.flutterwave.com"

type FlutterwaveAdapter struct {
	secretKey   string
	webhookHash string
	client      *http.Client
	baseURL     string
}

func NewFlutterwaveAdapter(secretKey, webhookHash string, timeout time.Duration) *FlutterwaveAdapter {
	return &FlutterwaveAdapter{
		secretKey:   secretKey,
		webhookHash: webhookHash,
		client:      &http.Client{Timeout: timeout},
		baseURL:     flutterwaveBaseURL,
	}
}

func (a *FlutterwaveAdapter) Method() domain.PaymentMethod {
	return domain.MethodCardFlutterwave
}

func (a *FlutterwaveAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	payload := map[string]interface{}{
		"tx_ref":   intent.PaymentReference,
		"amount":   fromMinor(intent.AmountMinor).String(),
		"currency": intent.Currency,
		"customer": map[string]string{"email": intent.CustomerEmail},
	}
	if intent.CallbackURL != "" {
		payload["redirect_url"] = intent.CallbackURL
	}

	var out struct {
		Status string `json:"status"`
		Data   struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	raw, err := doJSON(ctx, a.client, "flutterwave", http.MethodPost, a.baseURL+"/v3/payments", a.authHeaders(), nil, payload, &out)
	if err != nil {
		return nil, err
	}
	if out.Status != "success" || out.Data.Link == "" {
		return nil, domain.ErrGatewayProtocol("flutterwave", "initialize rejected")
	}

	return &domain.GatewayHandle{
		RedirectURL:      out.Data.Link,
		GatewayReference: intent.PaymentReference,
		Raw:              raw,
	}, nil
}

func (a *FlutterwaveAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	var out struct {
		Status string `json:"status"`
		Data   struct {
			Status   string          `json:"status"`
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"data"`
	}
	endpoint := a.baseURL + "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(gatewayReference)
	raw, err := doJSON(ctx, a.client, "flutterwave", http.MethodGet, endpoint, a.authHeaders(), nil, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, domain.ErrGatewayProtocol("flutterwave", "verify rejected")
	}

	return &domain.VerifyResult{
		Status:      flutterwaveStatus(out.Data.Status),
		AmountMinor: toMinor(out.Data.Amount),
		Currency:    strings.ToUpper(out.Data.Currency),
		Raw:         raw,
	}, nil
}

func (a *FlutterwaveAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	payload := map[string]interface{}{}
	if amount != nil {
		payload["amount"] = amount.String()
	}

	var out struct {
		Status string `json:"status"`
	}
	endpoint := a.baseURL + "/v3/transactions/" + url.PathEscape(gatewayReference) + "/refund"
	raw, err := doJSON(ctx, a.client, "flutterwave", http.MethodPost, endpoint, a.authHeaders(), nil, payload, &out)
	if err != nil {
		return nil, err
	}

	status := domain.GatewayStatusPending
	if out.Status == "success" {
		status = domain.GatewayStatusSuccess
	}
	return &domain.RefundResult{Status: status, Raw: raw}, nil
}

// ParseWebhook compares the verif-hash header against the configured
// shared secret in constant time.
func (a *FlutterwaveAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	hash := headers.Get("verif-hash")
	if hash == "" || subtle.ConstantTimeCompare([]byte(hash), []byte(a.webhookHash)) != 1 {
		return nil, domain.ErrInvalidSignature("flutterwave")
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			ID       int64           `json:"id"`
			TxRef    string          `json:"tx_ref"`
			Status   string          `json:"status"`
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.ErrGatewayProtocol("flutterwave", "malformed webhook body")
	}
	if event.Data.TxRef == "" {
		return nil, domain.ErrGatewayProtocol("flutterwave", "webhook missing tx_ref")
	}

	return &domain.WebhookEvent{
		EventID:          event.Event + ":" + event.Data.TxRef,
		Event:            event.Event,
		GatewayReference: event.Data.TxRef,
		Status:           flutterwaveStatus(event.Data.Status),
		AmountMinor:      toMinor(event.Data.Amount),
		Currency:         strings.ToUpper(event.Data.Currency),
		Raw:              body,
	}, nil
}

func (a *FlutterwaveAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.secretKey}
}

func flutterwaveStatus(s string) domain.GatewayStatus {
	switch strings.ToLower(s) {
	case "successful", "success":
		return domain.GatewayStatusSuccess
	case "failed", "cancelled":
		return domain.GatewayStatusFailed
	default:
		return domain.GatewayStatusPending
	}
}
