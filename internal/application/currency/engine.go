package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/cache"
)

// Engine converts between display currencies and the base currency. All
// conversions pivot through base so only one rate per currency is stored.
type Engine struct {
	repo     domain.CurrencyRepository
	source   domain.RateSource
	cache    *cache.Memory
	cacheTTL time.Duration
	timeout  time.Duration
	log      *logrus.Entry
}

func NewEngine(repo domain.CurrencyRepository, source domain.RateSource, c *cache.Memory, cacheTTL, timeout time.Duration) *Engine {
	return &Engine{
		repo:     repo,
		source:   source,
		cache:    c,
		cacheTTL: cacheTTL,
		timeout:  timeout,
		log:      logrus.WithField("component", "currency"),
	}
}

// Rate returns how many units of to one unit of from is worth, at scale 6.
func (e *Engine) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	rf, err := e.rateToBase(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	rt, err := e.rateToBase(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return rf.DivRound(rt, 6), nil
}

// Convert pivots through the base currency and rounds half-up to two
// decimals exactly once, at this edge. Pivoting on the raw stored rates
// instead of the display rate keeps round trips within a minor unit.
func (e *Engine) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount.Round(2), nil
	}
	rf, err := e.rateToBase(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	rt, err := e.rateToBase(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rf).DivRound(rt, 2), nil
}

// Refresh pulls fresh rates and atomically replaces the table. On failure
// the previous rates stay in place.
func (e *Engine) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rates, err := e.source.Fetch(ctx)
	if err != nil {
		e.log.WithError(err).Warn("rate refresh failed, keeping previous rates")
		if appErr, ok := err.(*domain.AppError); ok {
			return appErr
		}
		return domain.ErrRateRefreshFailed(err)
	}

	if err := e.repo.ReplaceRates(ctx, rates); err != nil {
		e.log.WithError(err).Warn("rate table replace failed, keeping previous rates")
		return domain.ErrRateRefreshFailed(err)
	}

	e.cache.Flush()
	e.log.WithField("currencies", len(rates)).Info("exchange rates refreshed")
	return nil
}

// Active lists the active currency registry, cached.
func (e *Engine) Active(ctx context.Context) ([]domain.Currency, error) {
	if cached, ok := e.cache.Get("currencies:active"); ok {
		return cached.([]domain.Currency), nil
	}
	currencies, err := e.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	e.cache.Set("currencies:active", currencies, e.cacheTTL)
	return currencies, nil
}

func (e *Engine) rateToBase(ctx context.Context, code string) (decimal.Decimal, error) {
	if code == domain.BaseCurrency {
		return decimal.NewFromInt(1), nil
	}

	cacheKey := "currency:" + code
	if cached, ok := e.cache.Get(cacheKey); ok {
		return cached.(decimal.Decimal), nil
	}

	currency, err := e.repo.FindByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if currency == nil || !currency.Active || !currency.RateToBase.IsPositive() {
		return decimal.Zero, domain.ErrUnknownCurrency(code)
	}

	e.cache.Set(cacheKey, currency.RateToBase, e.cacheTTL)
	return currency.RateToBase, nil
}
