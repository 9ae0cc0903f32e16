package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// Provider pulls exchange rates from an external HTTP API keyed on the base
// currency. The API answers with rates quoted as units of quoted currency
// per one base unit; we invert so a rate means base units per quoted unit.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewProvider(baseURL, apiKey string, timeout time.Duration) *Provider {
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

func (p *Provider) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("base", domain.BaseCurrency)
	if p.apiKey != "" {
		q.Set("access_key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.ErrRateRefreshFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrRateRefreshFailed(fmt.Errorf("provider returned %d", resp.StatusCode))
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, domain.ErrRateRefreshFailed(err)
	}
	if len(body.Rates) == 0 {
		return nil, domain.ErrRateRefreshFailed(fmt.Errorf("provider returned no rates"))
	}

	out := make(map[string]decimal.Decimal, len(body.Rates))
	for code, perBase := range body.Rates {
		if perBase.IsZero() || perBase.IsNegative() {
			continue
		}
		out[code] = decimal.NewFromInt(1).DivRound(perBase, 6)
	}
	out[domain.BaseCurrency] = decimal.NewFromInt(1)
	return out, nil
}
