package reconciler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/booking"
	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/application/payment"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/utils/config"
)

// verifyMinAge keeps the verifier from racing webhooks that are already
// in flight for freshly acknowledged payments.
const verifyMinAge = 30 * time.Second

const reminderWindow = 24 * time.Hour

// Reconciler runs the background loops that keep the ledger honest when
// webhooks go missing: gateway re-verification, expiry sweeps, rate
// refresh, reminders and the daily report.
type Reconciler struct {
	db       *gorm.DB
	cfg      *config.Config
	payments domain.PaymentRepository
	bookings domain.BookingRepository
	outbox   domain.OutboxRepository
	idem     domain.IdempotencyRepository
	ledger   *payment.Service
	trips    *booking.Service
	engine   *currency.Engine
	recorder *events.Recorder
	clock    domain.Clock
	log      *logrus.Entry
}

func New(
	db *gorm.DB,
	cfg *config.Config,
	payments domain.PaymentRepository,
	bookings domain.BookingRepository,
	outbox domain.OutboxRepository,
	idem domain.IdempotencyRepository,
	ledger *payment.Service,
	trips *booking.Service,
	engine *currency.Engine,
	recorder *events.Recorder,
	clock domain.Clock,
) *Reconciler {
	return &Reconciler{
		db:       db,
		cfg:      cfg,
		payments: payments,
		bookings: bookings,
		outbox:   outbox,
		idem:     idem,
		ledger:   ledger,
		trips:    trips,
		engine:   engine,
		recorder: recorder,
		clock:    clock,
		log:      logrus.WithField("component", "reconciler"),
	}
}

// Run blocks until ctx is cancelled, driving every loop from its own
// ticker.
func (r *Reconciler) Run(ctx context.Context) {
	verify := time.NewTicker(r.cfg.VerifyInterval)
	expire := time.NewTicker(r.cfg.ExpireInterval)
	sweep := time.NewTicker(r.cfg.BookingSweep)
	rates := time.NewTicker(r.cfg.RateRefreshInterval)
	remind := time.NewTicker(r.cfg.ReminderInterval)
	report := time.NewTicker(r.cfg.ReportInterval)
	cleanup := time.NewTicker(r.cfg.IdempotencyKeyTTL / 2)
	defer func() {
		for _, t := range []*time.Ticker{verify, expire, sweep, rates, remind, report, cleanup} {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reconciler stopped")
			return
		case <-verify.C:
			r.VerifyProcessing(ctx)
		case <-expire.C:
			r.ExpirePayments(ctx)
		case <-sweep.C:
			r.SweepBookings(ctx)
		case <-rates.C:
			r.RefreshRates(ctx)
		case <-remind.C:
			r.SendReminders(ctx)
		case <-report.C:
			r.EmitDailyReport(ctx)
		case <-cleanup.C:
			r.CleanupIdempotencyKeys(ctx)
		}
	}
}

// VerifyProcessing re-checks gateway state for payments stuck in
// PROCESSING, retrying transient gateway failures with backoff.
func (r *Reconciler) VerifyProcessing(ctx context.Context) {
	now := r.clock.Now()
	candidates, err := r.payments.FindInStatusBetween(
		ctx,
		domain.PaymentStatusProcessing,
		now.Add(-verifyMinAge),
		now.Add(-r.cfg.PaymentProcessingTTL),
	)
	if err != nil {
		r.log.WithError(err).Warn("failed to list processing payments")
		return
	}

	for _, p := range candidates {
		// Bank transfers settle via proof review, not gateway polls.
		if p.Method == domain.MethodBankTransfer {
			continue
		}
		if err := r.verifyWithBackoff(ctx, p.ID); err != nil {
			r.log.WithError(err).WithField("payment_id", p.ID).Warn("verification failed")
		}
	}
}

func (r *Reconciler) verifyWithBackoff(ctx context.Context, paymentID string) error {
	var err error
	for attempt := 1; attempt <= backoffAttempts; attempt++ {
		if _, err = r.ledger.Verify(ctx, paymentID); err == nil || !domain.IsTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(attempt)):
		}
	}
	return err
}

func (r *Reconciler) ExpirePayments(ctx context.Context) {
	expired, err := r.ledger.ExpireStalePayments(ctx, r.cfg.PaymentPendingTTL, r.cfg.PaymentProcessingTTL)
	if err != nil {
		r.log.WithError(err).Warn("payment expiry sweep failed")
		return
	}
	if expired > 0 {
		r.log.WithField("count", expired).Info("expired stale payments")
	}
}

// SweepBookings cancels bookings that never got paid.
func (r *Reconciler) SweepBookings(ctx context.Context) {
	stale, err := r.bookings.FindStale(
		ctx,
		[]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusPaymentPending},
		r.clock.Now().Add(-r.cfg.BookingStaleTTL),
	)
	if err != nil {
		r.log.WithError(err).Warn("failed to list stale bookings")
		return
	}

	for _, b := range stale {
		if _, err := r.trips.Cancel(ctx, b.ID); err != nil {
			r.log.WithError(err).WithField("booking_id", b.ID).Warn("failed to cancel stale booking")
		}
	}
}

func (r *Reconciler) RefreshRates(ctx context.Context) {
	if err := r.engine.Refresh(ctx); err != nil {
		r.log.WithError(err).Warn("rate refresh failed, keeping previous rates")
	}
}

// SendReminders records a reminder event for every confirmed booking
// starting within the next day. The outbox lookup makes the reminder
// once-per-booking.
func (r *Reconciler) SendReminders(ctx context.Context) {
	now := r.clock.Now()
	upcoming, err := r.bookings.FindStartingBetween(ctx, domain.BookingStatusConfirmed, now, now.Add(reminderWindow))
	if err != nil {
		r.log.WithError(err).Warn("failed to list upcoming bookings")
		return
	}

	for i := range upcoming {
		b := upcoming[i]
		sent, err := r.outbox.Exists(ctx, domain.EventBookingReminder, b.ID)
		if err != nil {
			r.log.WithError(err).Warn("failed to check reminder state")
			continue
		}
		if sent {
			continue
		}
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.recorder.RecordInTx(ctx, tx, domain.EventBookingReminder, &b, nil)
		})
		if err != nil {
			r.log.WithError(err).WithField("booking_id", b.ID).Warn("failed to record reminder")
		}
	}
}

func (r *Reconciler) EmitDailyReport(ctx context.Context) {
	counts, err := r.bookings.CountByStatus(ctx)
	if err != nil {
		r.log.WithError(err).Warn("failed to count bookings")
		return
	}

	payload := map[string]interface{}{
		"generated_at": r.clock.Now(),
	}
	for status, count := range counts {
		payload[string(status)] = count
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.recorder.RecordRawInTx(ctx, tx, domain.EventDailyReport, payload)
	})
	if err != nil {
		r.log.WithError(err).Warn("failed to record daily report")
	}
}

func (r *Reconciler) CleanupIdempotencyKeys(ctx context.Context) {
	deleted, err := r.idem.DeleteExpired(ctx)
	if err != nil {
		r.log.WithError(err).Warn("idempotency cleanup failed")
		return
	}
	if deleted > 0 {
		r.log.WithField("count", deleted).Info("removed expired idempotency keys")
	}
}
