package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/utils/scrub"
)

// maxWebhookDrift is how far a signed webhook timestamp may lag or lead
// before the event is rejected.
const maxWebhookDrift = 5 * time.Minute

// Registry holds the configured adapters keyed by payment method.
type Registry struct {
	adapters map[domain.PaymentMethod]domain.GatewayAdapter
}

func NewRegistry(adapters ...domain.GatewayAdapter) *Registry {
	r := &Registry{adapters: make(map[domain.PaymentMethod]domain.GatewayAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Method()] = a
	}
	return r
}

func (r *Registry) Get(method domain.PaymentMethod) (domain.GatewayAdapter, bool) {
	a, ok := r.adapters[method]
	return a, ok
}

// ByName resolves the webhook path segment ("stripe", "paystack", ...) to
// an adapter.
func (r *Registry) ByName(name string) (domain.GatewayAdapter, bool) {
	switch strings.ToLower(name) {
	case "stripe":
		return r.Get(domain.MethodCardStripe)
	case "paystack":
		return r.Get(domain.MethodCardPaystack)
	case "flutterwave":
		return r.Get(domain.MethodCardFlutterwave)
	case "paypal":
		return r.Get(domain.MethodWalletPaypal)
	case "bank-transfer", "bank_transfer":
		return r.Get(domain.MethodBankTransfer)
	}
	return nil, false
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// doJSON performs an HTTP exchange against a gateway and decodes the JSON
// answer. Transport failures come back retryable, anything else that is not
// a well-formed 2xx response is a protocol error.
func doJSON(ctx context.Context, client *http.Client, gateway, method, rawURL string, headers map[string]string, form url.Values, body interface{}, out interface{}) ([]byte, error) {
	var reader io.Reader
	contentType := ""
	switch {
	case form != nil:
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case body != nil:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, domain.ErrInternal(fmt.Sprintf("encode %s request: %v", gateway, err))
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, domain.ErrInternal(fmt.Sprintf("build %s request: %v", gateway, err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.ErrTransientGateway(gateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.ErrTransientGateway(gateway, err)
	}

	if resp.StatusCode >= 500 {
		return raw, domain.ErrTransientGateway(gateway, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, domain.ErrGatewayProtocol(gateway, fmt.Sprintf("status %d: %s", resp.StatusCode, scrub.String(string(raw))))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, domain.ErrGatewayProtocol(gateway, "malformed JSON response")
		}
	}
	return raw, nil
}

func checkDrift(eventTime, now time.Time) bool {
	drift := now.Sub(eventTime)
	if drift < 0 {
		drift = -drift
	}
	return drift <= maxWebhookDrift
}
