package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const stripeBaseURL = "https://api.stripe.com"

type StripeAdapter struct {
	secretKey     string
	webhookSecret string
	frontendURL   string
	client        *http.Client
	clock         domain.Clock
	baseURL       string
}

func NewStripeAdapter(secretKey, webhookSecret, frontendURL string, timeout time.Duration, clock domain.Clock) *StripeAdapter {
	return &StripeAdapter{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
		client:        &http.Client{Timeout: timeout},
		clock:         clock,
		baseURL:       stripeBaseURL,
	}
}

func (a *StripeAdapter) Method() domain.PaymentMethod {
	return domain.MethodCardStripe
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func (a *StripeAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(intent.AmountMinor, 10))
	form.Set("currency", strings.ToLower(intent.Currency))
	form.Set("receipt_email", intent.CustomerEmail)
	form.Set("metadata[reference]", intent.PaymentReference)

	headers := a.authHeaders()
	if intent.IdempotencyKey != "" {
		headers["Idempotency-Key"] = intent.IdempotencyKey
	}

	var out stripeIntent
	raw, err := doJSON(ctx, a.client, "stripe", http.MethodPost, a.baseURL+"/v1/payment_intents", headers, form, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" || out.ClientSecret == "" {
		return nil, domain.ErrGatewayProtocol("stripe", "payment intent missing id or client secret")
	}

	return &domain.GatewayHandle{
		RedirectURL:      fmt.Sprintf("%s/pay/stripe?client_secret=%s", a.frontendURL, out.ClientSecret),
		GatewayReference: out.ID,
		Raw:              raw,
	}, nil
}

func (a *StripeAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	var out stripeIntent
	raw, err := doJSON(ctx, a.client, "stripe", http.MethodGet, a.baseURL+"/v1/payment_intents/"+url.PathEscape(gatewayReference), a.authHeaders(), nil, nil, &out)
	if err != nil {
		return nil, err
	}

	return &domain.VerifyResult{
		Status:      stripeStatus(out.Status),
		AmountMinor: out.Amount,
		Currency:    strings.ToUpper(out.Currency),
		Raw:         raw,
	}, nil
}

func (a *StripeAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	form := url.Values{}
	form.Set("payment_intent", gatewayReference)
	if amount != nil {
		form.Set("amount", strconv.FormatInt(toMinor(*amount), 10))
	}

	var out struct {
		Status string `json:"status"`
	}
	raw, err := doJSON(ctx, a.client, "stripe", http.MethodPost, a.baseURL+"/v1/refunds", a.authHeaders(), form, nil, &out)
	if err != nil {
		return nil, err
	}

	status := domain.GatewayStatusPending
	if out.Status == "succeeded" {
		status = domain.GatewayStatusSuccess
	} else if out.Status == "failed" || out.Status == "canceled" {
		status = domain.GatewayStatusFailed
	}
	return &domain.RefundResult{Status: status, Raw: raw}, nil
}

// ParseWebhook validates the Stripe-Signature header: HMAC-SHA256 of
// "<timestamp>.<body>" under the webhook secret, with the timestamp bounded
// to five minutes of drift.
func (a *StripeAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	ts, signature, err := parseStripeSignature(headers.Get("Stripe-Signature"))
	if err != nil {
		return nil, domain.ErrInvalidSignature("stripe")
	}

	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domain.ErrInvalidSignature("stripe")
	}

	if !checkDrift(time.Unix(ts, 0), a.clock.Now()) {
		return nil, domain.ErrInvalidSignature("stripe")
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object stripeIntent `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.ErrGatewayProtocol("stripe", "malformed webhook body")
	}
	if event.ID == "" || event.Data.Object.ID == "" {
		return nil, domain.ErrGatewayProtocol("stripe", "webhook missing event or intent id")
	}

	status := domain.GatewayStatusPending
	switch event.Type {
	case "payment_intent.succeeded":
		status = domain.GatewayStatusSuccess
	case "payment_intent.payment_failed", "payment_intent.canceled":
		status = domain.GatewayStatusFailed
	}

	return &domain.WebhookEvent{
		EventID:          event.ID,
		Event:            event.Type,
		GatewayReference: event.Data.Object.ID,
		Status:           status,
		AmountMinor:      event.Data.Object.Amount,
		Currency:         strings.ToUpper(event.Data.Object.Currency),
		Raw:              body,
	}, nil
}

func (a *StripeAdapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.secretKey}
}

func stripeStatus(s string) domain.GatewayStatus {
	switch s {
	case "succeeded":
		return domain.GatewayStatusSuccess
	case "canceled":
		return domain.GatewayStatusFailed
	default:
		return domain.GatewayStatusPending
	}
}

func parseStripeSignature(header string) (int64, string, error) {
	var ts int64
	var signature string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", err
			}
			ts = parsed
		case "v1":
			signature = v
		}
	}
	if ts == 0 || signature == "" {
		return 0, "", fmt.Errorf("incomplete signature header")
	}
	return ts, signature, nil
}
