package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	"github.com/stanmart1/skylyt-core/internal/infrastructure/gorm/repositories"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type capturingNotifier struct {
	sent []domain.OutboxEvent
	fail map[string]error
}

func (n *capturingNotifier) Send(ctx context.Context, event domain.OutboxEvent) error {
	if err, ok := n.fail[event.Name]; ok {
		return err
	}
	n.sent = append(n.sent, event)
	return nil
}

func seedEvents(t *testing.T, db *gorm.DB, recorder *Recorder, names ...string) {
	t.Helper()
	booking := &domain.Booking{
		ID:            "bk-1",
		Reference:     "BK1234ABCDEF",
		Status:        domain.BookingStatusConfirmed,
		Currency:      "USD",
		AmountDisplay: decimal.NewFromInt(150),
		AmountBase:    decimal.NewFromInt(225000),
		CustomerEmail: "ada@example.com",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			if err := recorder.RecordInTx(context.Background(), tx, name, booking, nil); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestDispatchOnceDeliversAndMarks(t *testing.T) {
	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)
	outbox := repositories.NewOutboxRepo(db)
	recorder, err := NewRecorder(outbox)
	require.NoError(t, err)

	seedEvents(t, db, recorder, domain.EventBookingCreated, domain.EventBookingConfirmed)

	notifier := &capturingNotifier{}
	clock := fixedClock{now: time.Now().UTC()}
	d := NewDispatcher(outbox, notifier, clock, time.Minute)

	d.DispatchOnce(context.Background())

	require.Len(t, notifier.sent, 2)
	assert.Equal(t, domain.EventBookingCreated, notifier.sent[0].Name)
	assert.Equal(t, domain.EventBookingConfirmed, notifier.sent[1].Name)

	remaining, err := outbox.FindUndelivered(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// A second pass has nothing left to push.
	d.DispatchOnce(context.Background())
	assert.Len(t, notifier.sent, 2)
}

func TestDispatchOnceRetainsFailedEvents(t *testing.T) {
	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)
	outbox := repositories.NewOutboxRepo(db)
	recorder, err := NewRecorder(outbox)
	require.NoError(t, err)

	seedEvents(t, db, recorder, domain.EventBookingCreated, domain.EventBookingConfirmed)

	notifier := &capturingNotifier{
		fail: map[string]error{domain.EventBookingConfirmed: fmt.Errorf("smtp timeout")},
	}
	d := NewDispatcher(outbox, notifier, fixedClock{now: time.Now().UTC()}, time.Minute)

	d.DispatchOnce(context.Background())

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, domain.EventBookingCreated, notifier.sent[0].Name)

	remaining, err := outbox.FindUndelivered(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, domain.EventBookingConfirmed, remaining[0].Name)
	assert.Equal(t, 1, remaining[0].Attempts)

	// Once the notifier recovers the event goes out on the next pass.
	notifier.fail = nil
	d.DispatchOnce(context.Background())
	assert.Len(t, notifier.sent, 2)

	remaining, err = outbox.FindUndelivered(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRecorderPayload(t *testing.T) {
	db, err := gormdb.NewTestConnection()
	require.NoError(t, err)
	outbox := repositories.NewOutboxRepo(db)
	recorder, err := NewRecorder(outbox)
	require.NoError(t, err)

	booking := &domain.Booking{
		ID:            "bk-1",
		Reference:     "BK1234ABCDEF",
		Status:        domain.BookingStatusPaymentPending,
		Currency:      "USD",
		AmountDisplay: decimal.NewFromInt(150),
		AmountBase:    decimal.NewFromInt(225000),
		CustomerEmail: "ada@example.com",
	}
	payment := &domain.Payment{
		ID:         "pm-1",
		Reference:  "PAY1234ABCDE",
		Status:     domain.PaymentStatusFailed,
		Method:     domain.MethodCardStripe,
		FailReason: domain.FailReasonGatewayMismatch,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return recorder.RecordInTx(context.Background(), tx, domain.EventPaymentFailed, booking, payment)
	})
	require.NoError(t, err)

	events, err := outbox.FindUndelivered(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, domain.EventPaymentFailed, e.Name)
	assert.Equal(t, "bk-1", e.BookingID)
	assert.Equal(t, "pm-1", e.PaymentID)
	assert.Equal(t, "ada@example.com", e.OwnerEmail)
	assert.Positive(t, e.Sequence)
	assert.Contains(t, string(e.Payload), domain.FailReasonGatewayMismatch)
}
