package currency

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/cache"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/repositories"
)

type stubRateSource struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
}

func (s *stubRateSource) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func newTestEngine(t *testing.T, source domain.RateSource) (*Engine, domain.CurrencyRepository) {
	t.Helper()

	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)

	repo := repositories.NewCurrencyRepo(db)
	ctx := context.Background()
	seed := []domain.Currency{
		{Code: "NGN", Symbol: "₦", RateToBase: decimal.NewFromInt(1), Active: true},
		{Code: "USD", Symbol: "$", RateToBase: decimal.NewFromInt(1500), Active: true},
		{Code: "EUR", Symbol: "€", RateToBase: decimal.NewFromInt(1600), Active: true},
		{Code: "GBP", Symbol: "£", RateToBase: decimal.NewFromInt(1900), Active: false},
	}
	for i := range seed {
		require.NoError(t, repo.Upsert(ctx, &seed[i]))
	}

	return NewEngine(repo, source, cache.NewMemory(), time.Minute, time.Second), repo
}

func TestConvertToBase(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	got, err := e.Convert(context.Background(), decimal.NewFromInt(150), "USD", "NGN")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(225000).Equal(got), got.String())
}

func TestConvertSameCurrency(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	amount := decimal.RequireFromString("99.999")
	got, err := e.Convert(context.Background(), amount, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, "100", got.String())
}

func TestConvertCrossCurrency(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	// USD->EUR pivots through base: 1500/1600 = 0.9375
	got, err := e.Convert(context.Background(), decimal.NewFromInt(100), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "93.75", got.String())
}

func TestConvertRoundTripDrift(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})
	ctx := context.Background()

	start := decimal.RequireFromString("137.43")
	ngn, err := e.Convert(ctx, start, "USD", "NGN")
	require.NoError(t, err)
	back, err := e.Convert(ctx, ngn, "NGN", "USD")
	require.NoError(t, err)

	drift := back.Sub(start).Abs()
	assert.True(t, drift.LessThanOrEqual(decimal.RequireFromString("0.01")), drift.String())
}

func TestConvertUnknownCurrency(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	_, err := e.Convert(context.Background(), decimal.NewFromInt(10), "XXX", "NGN")
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "UNKNOWN_CURRENCY", appErr.Code)
}

func TestConvertInactiveCurrency(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	_, err := e.Convert(context.Background(), decimal.NewFromInt(10), "GBP", "NGN")
	assert.Error(t, err)
}

func TestRateScale(t *testing.T) {
	e, _ := newTestEngine(t, &stubRateSource{})

	rate, err := e.Rate(context.Background(), "NGN", "USD")
	require.NoError(t, err)
	assert.Equal(t, "0.000667", rate.String())
}

func TestRefreshReplacesRates(t *testing.T) {
	source := &stubRateSource{rates: map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1550),
	}}
	e, _ := newTestEngine(t, source)
	ctx := context.Background()

	// warm the cache with the old rate first
	got, err := e.Convert(ctx, decimal.NewFromInt(1), "USD", "NGN")
	require.NoError(t, err)
	assert.Equal(t, "1500", got.String())

	require.NoError(t, e.Refresh(ctx))

	got, err = e.Convert(ctx, decimal.NewFromInt(1), "USD", "NGN")
	require.NoError(t, err)
	assert.Equal(t, "1550", got.String())
}

func TestRefreshFailureKeepsRates(t *testing.T) {
	source := &stubRateSource{err: assert.AnError}
	e, _ := newTestEngine(t, source)
	ctx := context.Background()

	err := e.Refresh(ctx)
	require.Error(t, err)

	got, convErr := e.Convert(ctx, decimal.NewFromInt(1), "USD", "NGN")
	require.NoError(t, convErr)
	assert.Equal(t, "1500", got.String())
}

func TestActiveUsesCache(t *testing.T) {
	e, repo := newTestEngine(t, &stubRateSource{})
	ctx := context.Background()

	first, err := e.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	// a write bypassing the cache is not visible until the TTL lapses
	require.NoError(t, repo.Upsert(ctx, &domain.Currency{
		Code: "KES", Symbol: "KSh", RateToBase: decimal.NewFromInt(10), Active: true,
	}))
	second, err := e.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 3)
}
