package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/cache"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/repositories"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

type noRates struct{}

func (noRates) Fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	return nil, nil
}

type harness struct {
	db      *gorm.DB
	svc     *Service
	outbox  domain.OutboxRepository
	clock   *manualClock
	started time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)

	currencyRepo := repositories.NewCurrencyRepo(db)
	ctx := context.Background()
	for _, c := range []domain.Currency{
		{Code: "NGN", Symbol: "₦", RateToBase: decimal.NewFromInt(1), Active: true},
		{Code: "USD", Symbol: "$", RateToBase: decimal.NewFromInt(1500), Active: true},
	} {
		seed := c
		require.NoError(t, currencyRepo.Upsert(ctx, &seed))
	}

	engine := currency.NewEngine(currencyRepo, noRates{}, cache.NewMemory(), time.Minute, time.Second)

	outboxRepo := repositories.NewOutboxRepo(db)
	recorder, err := events.NewRecorder(outboxRepo)
	require.NoError(t, err)

	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(db, repositories.NewBookingRepo(db), engine, recorder, lockmap.New(), clock)

	return &harness{db: db, svc: svc, outbox: outboxRepo, clock: clock, started: clock.now}
}

func validCreate(h *harness) CreateRequest {
	return CreateRequest{
		OwnerID:       "owner-1",
		Type:          domain.BookingTypeHotel,
		Currency:      "USD",
		Amount:        decimal.NewFromInt(150),
		StartDate:     h.started.Add(48 * time.Hour),
		EndDate:       h.started.Add(96 * time.Hour),
		CustomerName:  "Ada Obi",
		CustomerEmail: "ada@example.com",
	}
}

func (h *harness) eventNames(t *testing.T) []string {
	t.Helper()
	undelivered, err := h.outbox.FindUndelivered(context.Background(), 100)
	require.NoError(t, err)
	names := make([]string, 0, len(undelivered))
	for _, e := range undelivered {
		names = append(names, e.Name)
	}
	return names
}

func TestCreateBooking(t *testing.T) {
	h := newHarness(t)

	b, err := h.svc.Create(context.Background(), validCreate(h))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingStatusPending, b.Status)
	assert.True(t, strings.HasPrefix(b.Reference, "BK"))
	assert.Len(t, b.Reference, 12)
	assert.Equal(t, "150", b.AmountDisplay.String())
	assert.Equal(t, "225000", b.AmountBase.String())
	assert.Contains(t, h.eventNames(t), domain.EventBookingCreated)
}

func TestCreateCarBookingGetsTripStatus(t *testing.T) {
	h := newHarness(t)

	req := validCreate(h)
	req.Type = domain.BookingTypeCar
	b, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusNotStarted, b.TripStatus)
}

func TestCreateBookingValidation(t *testing.T) {
	h := newHarness(t)

	req := validCreate(h)
	req.OwnerID = ""
	req.Amount = decimal.Zero
	req.EndDate = req.StartDate

	_, err := h.svc.Create(context.Background(), req)
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Len(t, appErr.Messages, 3)
}

func TestCreateBookingUnknownCurrency(t *testing.T) {
	h := newHarness(t)

	req := validCreate(h)
	req.Currency = "JPY"
	_, err := h.svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestCancelPendingBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.svc.Create(ctx, validCreate(h))
	require.NoError(t, err)

	cancelled, err := h.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, cancelled.Status)
	assert.Contains(t, h.eventNames(t), domain.EventBookingCancelled)
}

func TestCancelTwiceFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.svc.Create(ctx, validCreate(h))
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, err = h.svc.Cancel(ctx, b.ID)
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "ILLEGAL_BOOKING_TRANSITION", appErr.Code)
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.svc.Create(ctx, validCreate(h))
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, b.ID)
	assert.Error(t, err)
}

func TestCompleteAfterWindow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b, err := h.svc.Create(ctx, validCreate(h))
	require.NoError(t, err)

	// confirm directly; the payment path is covered elsewhere
	b.Status = domain.BookingStatusConfirmed
	require.NoError(t, h.db.Save(b).Error)

	_, err = h.svc.Complete(ctx, b.ID)
	require.Error(t, err, "window not elapsed yet")

	h.clock.now = h.started.Add(200 * time.Hour)
	completed, err := h.svc.Complete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, completed.Status)
	assert.Contains(t, h.eventNames(t), domain.EventBookingCompleted)
}

func TestGetMissingBooking(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Get(context.Background(), "nope")
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
