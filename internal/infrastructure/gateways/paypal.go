package gateways

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const (
	paypalLiveURL    = "https://api-m.paypal.com"
	paypalSandboxURL = "https://api-m.sandbox.paypal.com"
)

type PaypalAdapter struct {
	clientID     string
	clientSecret string
	client       *http.Client
	baseURL      string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewPaypalAdapter(clientID, clientSecret string, sandbox bool, timeout time.Duration) *PaypalAdapter {
	baseURL := paypalLiveURL
	if sandbox {
		baseURL = paypalSandboxURL
	}
	return &PaypalAdapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
	}
}

func (a *PaypalAdapter) Method() domain.PaymentMethod {
	return domain.MethodWalletPaypal
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Amount   paypalAmount `json:"amount"`
		Payments struct {
			Captures []struct {
				ID     string       `json:"id"`
				Status string       `json:"status"`
				Amount paypalAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (a *PaypalAdapter) Initialize(ctx context.Context, intent domain.InitializeIntent) (*domain.GatewayHandle, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": intent.PaymentReference,
				"amount": paypalAmount{
					CurrencyCode: intent.Currency,
					Value:        fromMinor(intent.AmountMinor).StringFixed(2),
				},
			},
		},
	}

	headers := map[string]string{"Authorization": "Bearer " + token}
	if intent.IdempotencyKey != "" {
		headers["PayPal-Request-Id"] = intent.IdempotencyKey
	}

	var out paypalOrder
	raw, err := doJSON(ctx, a.client, "paypal", http.MethodPost, a.baseURL+"/v2/checkout/orders", headers, nil, payload, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, domain.ErrGatewayProtocol("paypal", "order missing id")
	}

	approveURL := ""
	for _, link := range out.Links {
		if link.Rel == "approve" {
			approveURL = link.Href
		}
	}
	if approveURL == "" {
		return nil, domain.ErrGatewayProtocol("paypal", "order missing approve link")
	}

	return &domain.GatewayHandle{
		RedirectURL:      approveURL,
		GatewayReference: out.ID,
		Raw:              raw,
	}, nil
}

func (a *PaypalAdapter) Verify(ctx context.Context, gatewayReference string) (*domain.VerifyResult, error) {
	order, raw, err := a.getOrder(ctx, gatewayReference)
	if err != nil {
		return nil, err
	}

	var amountMinor int64
	currency := ""
	if len(order.PurchaseUnits) > 0 {
		amount, parseErr := decimal.NewFromString(order.PurchaseUnits[0].Amount.Value)
		if parseErr != nil {
			return nil, domain.ErrGatewayProtocol("paypal", "unparseable amount")
		}
		amountMinor = toMinor(amount)
		currency = strings.ToUpper(order.PurchaseUnits[0].Amount.CurrencyCode)
	}

	return &domain.VerifyResult{
		Status:      paypalStatus(order.Status),
		AmountMinor: amountMinor,
		Currency:    currency,
		Raw:         raw,
	}, nil
}

func (a *PaypalAdapter) Refund(ctx context.Context, gatewayReference string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	order, _, err := a.getOrder(ctx, gatewayReference)
	if err != nil {
		return nil, err
	}

	captureID := ""
	for _, unit := range order.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			if capture.Status == "COMPLETED" {
				captureID = capture.ID
			}
		}
	}
	if captureID == "" {
		return nil, domain.ErrGatewayProtocol("paypal", "order has no completed capture to refund")
	}

	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if amount != nil {
		currency := domain.BaseCurrency
		if len(order.PurchaseUnits) > 0 {
			currency = order.PurchaseUnits[0].Amount.CurrencyCode
		}
		payload = map[string]interface{}{
			"amount": paypalAmount{CurrencyCode: currency, Value: amount.StringFixed(2)},
		}
	} else {
		payload = map[string]interface{}{}
	}

	var out struct {
		Status string `json:"status"`
	}
	endpoint := a.baseURL + "/v2/payments/captures/" + url.PathEscape(captureID) + "/refund"
	raw, err := doJSON(ctx, a.client, "paypal", http.MethodPost, endpoint, map[string]string{"Authorization": "Bearer " + token}, nil, payload, &out)
	if err != nil {
		return nil, err
	}

	status := domain.GatewayStatusPending
	if out.Status == "COMPLETED" {
		status = domain.GatewayStatusSuccess
	} else if out.Status == "FAILED" {
		status = domain.GatewayStatusFailed
	}
	return &domain.RefundResult{Status: status, Raw: raw}, nil
}

// ParseWebhook normalizes a PayPal webhook delivery. PayPal signs with a
// certificate scheme rather than a shared-secret HMAC, so the event is
// treated as a hint: the ledger only trusts it after Verify confirms the
// order state.
func (a *PaypalAdapter) ParseWebhook(headers http.Header, body []byte) (*domain.WebhookEvent, error) {
	var event struct {
		ID        string `json:"id"`
		EventType string `json:"event_type"`
		Resource  struct {
			ID               string       `json:"id"`
			Status           string       `json:"status"`
			Amount           paypalAmount `json:"amount"`
			SupplementaryData struct {
				RelatedIDs struct {
					OrderID string `json:"order_id"`
				} `json:"related_ids"`
			} `json:"supplementary_data"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, domain.ErrGatewayProtocol("paypal", "malformed webhook body")
	}
	if event.ID == "" {
		return nil, domain.ErrGatewayProtocol("paypal", "webhook missing event id")
	}

	orderID := event.Resource.SupplementaryData.RelatedIDs.OrderID
	if orderID == "" {
		orderID = event.Resource.ID
	}

	var amountMinor int64
	if event.Resource.Amount.Value != "" {
		amount, err := decimal.NewFromString(event.Resource.Amount.Value)
		if err != nil {
			return nil, domain.ErrGatewayProtocol("paypal", "unparseable amount")
		}
		amountMinor = toMinor(amount)
	}

	status := domain.GatewayStatusPending
	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.COMPLETED":
		status = domain.GatewayStatusSuccess
	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		status = domain.GatewayStatusFailed
	}

	return &domain.WebhookEvent{
		EventID:          event.ID,
		Event:            event.EventType,
		GatewayReference: orderID,
		Status:           status,
		AmountMinor:      amountMinor,
		Currency:         strings.ToUpper(event.Resource.Amount.CurrencyCode),
		Raw:              body,
	}, nil
}

func (a *PaypalAdapter) getOrder(ctx context.Context, orderID string) (*paypalOrder, []byte, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, nil, err
	}

	var out paypalOrder
	raw, err := doJSON(ctx, a.client, "paypal", http.MethodGet, a.baseURL+"/v2/checkout/orders/"+url.PathEscape(orderID), map[string]string{"Authorization": "Bearer " + token}, nil, nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, raw, nil
}

func (a *PaypalAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(a.clientID + ":" + a.clientSecret))
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	_, err := doJSON(ctx, a.client, "paypal", http.MethodPost, a.baseURL+"/v1/oauth2/token", map[string]string{"Authorization": "Basic " + basic}, form, nil, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", domain.ErrGatewayProtocol("paypal", "token response missing access_token")
	}

	a.accessToken = out.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn-60) * time.Second)
	return a.accessToken, nil
}

func paypalStatus(s string) domain.GatewayStatus {
	switch s {
	case "COMPLETED":
		return domain.GatewayStatusSuccess
	case "VOIDED":
		return domain.GatewayStatusFailed
	default:
		return domain.GatewayStatusPending
	}
}
