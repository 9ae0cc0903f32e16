package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/domain"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	"github.com/stanmart1/skylyt-core/internal/utils/fingerprint"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
	"github.com/stanmart1/skylyt-core/internal/utils/reference"
)

// GatewayResolver hands out the configured adapter for a payment method or
// a webhook path segment.
type GatewayResolver interface {
	Get(method domain.PaymentMethod) (domain.GatewayAdapter, bool)
	ByName(name string) (domain.GatewayAdapter, bool)
}

type InitializeRequest struct {
	BookingID string               `json:"booking_id"`
	Method    domain.PaymentMethod `json:"payment_method"`
}

type InitializeResult struct {
	Payment      *domain.Payment          `json:"payment"`
	RedirectURL  string                   `json:"redirect_url,omitempty"`
	Instructions *domain.BankInstructions `json:"instructions,omitempty"`
}

type WebhookOutcome struct {
	Duplicate bool
	Payment   *domain.Payment
}

type Service struct {
	db          *gorm.DB
	payments    domain.PaymentRepository
	bookings    domain.BookingRepository
	idempotency domain.IdempotencyRepository
	webhooks    domain.WebhookEventRepository
	gateways    GatewayResolver
	engine      *currency.Engine
	recorder    *events.Recorder
	locks       *lockmap.LockMap
	clock       domain.Clock
	keyTTL      time.Duration
	callbackURL string
	log         *logrus.Entry
}

func NewService(
	db *gorm.DB,
	payments domain.PaymentRepository,
	bookings domain.BookingRepository,
	idempotency domain.IdempotencyRepository,
	webhooks domain.WebhookEventRepository,
	gateways GatewayResolver,
	engine *currency.Engine,
	recorder *events.Recorder,
	locks *lockmap.LockMap,
	clock domain.Clock,
	keyTTL time.Duration,
	callbackURL string,
) *Service {
	return &Service{
		db:          db,
		payments:    payments,
		bookings:    bookings,
		idempotency: idempotency,
		webhooks:    webhooks,
		gateways:    gateways,
		engine:      engine,
		recorder:    recorder,
		locks:       locks,
		clock:       clock,
		keyTTL:      keyTTL,
		callbackURL: callbackURL,
		log:         logrus.WithField("component", "payment"),
	}
}

// Initialize opens a payment attempt against the chosen gateway. Repeat
// calls with the same idempotency key return the attempt created the first
// time; the same key with a different payload is a conflict.
func (s *Service) Initialize(ctx context.Context, idempotencyKey string, req InitializeRequest) (*InitializeResult, error) {
	if err := validateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}
	if err := validateInitialize(req); err != nil {
		return nil, err
	}

	adapter, ok := s.gateways.Get(req.Method)
	if !ok {
		return nil, domain.ErrValidation("payment method is not configured")
	}

	fp := fingerprint.Compute(req)

	var result *InitializeResult
	var returnErr error

	err := s.locks.Do(req.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			record, err := s.idempotency.FindByKeyForUpdate(ctx, tx, idempotencyKey)
			if err != nil {
				returnErr = domain.ErrInternal("failed to check idempotency key")
				return err
			}

			if record != nil {
				if record.Status == domain.IdempotencyStatusProcessing {
					returnErr = domain.ErrPaymentProcessing()
					return returnErr
				}
				if record.RequestFingerprint != fp {
					returnErr = domain.ErrIdempotencyKeyConflict(idempotencyKey)
					return returnErr
				}
				var cached InitializeResult
				if err := json.Unmarshal(record.ResponseBody, &cached); err != nil {
					returnErr = domain.ErrInternal("failed to deserialize cached response")
					return err
				}
				result = &cached
				return nil
			}

			newRecord := &domain.IdempotencyRecord{
				Key:                idempotencyKey,
				RequestFingerprint: fp,
				Status:             domain.IdempotencyStatusProcessing,
				CreatedAt:          s.clock.Now(),
				ExpiresAt:          s.clock.Now().Add(s.keyTTL),
			}
			if err := s.idempotency.CreateInTx(ctx, tx, newRecord); err != nil {
				returnErr = domain.ErrInternal("failed to create idempotency record")
				return err
			}

			booking, err := s.bookings.FindByIDForUpdate(ctx, tx, req.BookingID)
			if err != nil {
				returnErr = domain.ErrInternal("failed to load booking")
				return err
			}
			if booking == nil {
				returnErr = domain.ErrNotFound("booking", req.BookingID)
				return returnErr
			}
			if booking.Status != domain.BookingStatusPending && booking.Status != domain.BookingStatusPaymentPending {
				returnErr = domain.ErrIllegalBookingTransition(booking.Status, domain.BookingStatusPaymentPending)
				return returnErr
			}

			paid, err := s.payments.CompletedExistsInTx(ctx, tx, booking.ID)
			if err != nil {
				returnErr = domain.ErrInternal("failed to check existing payments")
				return err
			}
			if paid {
				returnErr = domain.ErrIllegalBookingTransition(booking.Status, domain.BookingStatusPaymentPending)
				return returnErr
			}

			payment, initErr := s.openPayment(ctx, tx, booking, req.Method)
			if initErr != nil {
				returnErr = initErr
				return initErr
			}

			intent := domain.InitializeIntent{
				PaymentReference:  payment.Reference,
				AmountMinor:       minorUnits(payment.AmountDisplay),
				Currency:          payment.Currency,
				CustomerEmail:     booking.CustomerEmail,
				IdempotencyKey:    idempotencyKey,
				TransferReference: payment.TransferReference,
				CallbackURL:       s.callbackURL,
			}
			handle, err := adapter.Initialize(ctx, intent)
			if err != nil {
				returnErr = err
				return err
			}

			payment.GatewayReference = handle.GatewayReference
			payment.GatewayResponse = handle.Raw
			if err := s.payments.CreateInTx(ctx, tx, payment); err != nil {
				returnErr = domain.ErrInternal("failed to save payment")
				return err
			}

			if booking.Status == domain.BookingStatusPending {
				booking.Status = domain.BookingStatusPaymentPending
				if err := s.bookings.UpdateInTx(ctx, tx, booking); err != nil {
					returnErr = domain.ErrInternal("failed to update booking")
					return err
				}
				if err := s.recorder.RecordInTx(ctx, tx, domain.EventBookingPaymentPending, booking, payment); err != nil {
					returnErr = domain.ErrInternal("failed to record event")
					return err
				}
			}

			result = &InitializeResult{
				Payment:      payment,
				RedirectURL:  handle.RedirectURL,
				Instructions: handle.Instructions,
			}

			responseBody, err := json.Marshal(result)
			if err != nil {
				returnErr = domain.ErrInternal("failed to serialize payment response")
				return err
			}
			newRecord.Status = domain.IdempotencyStatusCompleted
			newRecord.PaymentID = payment.ID
			newRecord.ResponseBody = responseBody
			if err := s.idempotency.UpdateInTx(ctx, tx, newRecord); err != nil {
				returnErr = domain.ErrInternal("failed to update idempotency record")
				return err
			}
			return nil
		})
	})
	if err != nil {
		if returnErr != nil {
			return nil, returnErr
		}
		return nil, domain.ErrInternal("payment initialization failed")
	}
	return result, nil
}

// Verify pulls authoritative state from the gateway and applies it.
func (s *Service) Verify(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.Get(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	adapter, ok := s.gateways.Get(payment.Method)
	if !ok {
		return nil, domain.ErrValidation("payment method is not configured")
	}

	verdict, err := adapter.Verify(ctx, payment.GatewayReference)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, payment.ID, verdict.Status, verdict.AmountMinor, verdict.Currency, verdict.Raw)
}

// HandleWebhook validates, dedups and applies a gateway delivery. A
// duplicate delivery is acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, gatewayName string, headers http.Header, body []byte) (*WebhookOutcome, error) {
	adapter, ok := s.gateways.ByName(gatewayName)
	if !ok {
		return nil, domain.ErrNotFound("gateway", gatewayName)
	}

	event, err := adapter.ParseWebhook(headers, body)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.FindByGatewayReference(ctx, event.GatewayReference)
	if err != nil {
		return nil, domain.ErrInternal("failed to resolve payment")
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", event.GatewayReference)
	}

	duplicate := false
	var applyErr error
	var mismatch *domain.AppError

	lockErr := s.locks.Do(payment.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			first, err := s.webhooks.MarkProcessedInTx(ctx, tx, gatewayName, event.EventID)
			if err != nil {
				applyErr = domain.ErrInternal("failed to dedup webhook")
				return err
			}
			if !first {
				duplicate = true
				return nil
			}
			payment, mismatch, applyErr = s.applyInTx(ctx, tx, payment.ID, event.Status, event.AmountMinor, event.Currency, event.Raw)
			if applyErr != nil {
				return applyErr
			}
			return nil
		})
	})
	if lockErr != nil {
		if applyErr != nil {
			return nil, applyErr
		}
		return nil, domain.ErrInternal("webhook processing failed")
	}
	if mismatch != nil {
		return nil, mismatch
	}
	return &WebhookOutcome{Duplicate: duplicate, Payment: payment}, nil
}

func (s *Service) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load payment")
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID)
	}
	return payment, nil
}

func (s *Service) ListByBooking(ctx context.Context, bookingID string) ([]domain.Payment, error) {
	payments, err := s.payments.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list payments")
	}
	return payments, nil
}

// RefundBooking refunds the completed payment of a confirmed booking. A
// nil amount means full refund; a full refund moves payment and booking to
// REFUNDED.
func (s *Service) RefundBooking(ctx context.Context, bookingID string, amount *decimal.Decimal, reason string) (*domain.Payment, error) {
	var result *domain.Payment
	var returnErr error

	err := s.locks.Do(bookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			booking, err := s.bookings.FindByIDForUpdate(ctx, tx, bookingID)
			if err != nil {
				returnErr = domain.ErrInternal("failed to load booking")
				return err
			}
			if booking == nil {
				returnErr = domain.ErrNotFound("booking", bookingID)
				return returnErr
			}
			payment, err := s.findSettledForUpdate(ctx, tx, bookingID)
			if err != nil {
				returnErr = err
				return err
			}

			if !payment.Status.CanTransitionTo(domain.PaymentStatusRefunded) {
				returnErr = domain.ErrIllegalPaymentTransition(payment.Status, domain.PaymentStatusRefunded)
				return returnErr
			}
			if booking.Status != domain.BookingStatusConfirmed {
				returnErr = domain.ErrIllegalBookingTransition(booking.Status, domain.BookingStatusRefunded)
				return returnErr
			}

			refundAmount := payment.AmountDisplay.Sub(payment.RefundedAmount)
			if amount != nil {
				refundAmount = amount.Round(2)
			}
			if !refundAmount.IsPositive() {
				returnErr = domain.ErrValidation("refund amount must be greater than 0")
				return returnErr
			}
			if payment.RefundedAmount.Add(refundAmount).GreaterThan(payment.AmountDisplay) {
				returnErr = domain.ErrValidation("refunds cannot exceed the paid amount")
				return returnErr
			}

			adapter, ok := s.gateways.Get(payment.Method)
			if !ok {
				returnErr = domain.ErrValidation("payment method is not configured")
				return returnErr
			}
			refund, err := adapter.Refund(ctx, payment.GatewayReference, &refundAmount)
			if err != nil {
				returnErr = err
				return err
			}
			if refund.Status == domain.GatewayStatusFailed {
				returnErr = domain.ErrGatewayProtocol(string(payment.Method), "gateway rejected the refund")
				return returnErr
			}

			now := s.clock.Now()
			payment.RefundedAmount = payment.RefundedAmount.Add(refundAmount)
			payment.RefundReason = reason
			payment.RefundedAt = &now

			full := payment.RefundedAmount.Equal(payment.AmountDisplay)
			if full {
				payment.RefundStatus = domain.RefundStatusFull
				payment.Status = domain.PaymentStatusRefunded
			} else {
				payment.RefundStatus = domain.RefundStatusPartial
			}
			if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
				returnErr = domain.ErrInternal("failed to update payment")
				return err
			}

			if full {
				booking.Status = domain.BookingStatusRefunded
				if err := s.bookings.UpdateInTx(ctx, tx, booking); err != nil {
					returnErr = domain.ErrInternal("failed to update booking")
					return err
				}
				if err := s.recorder.RecordInTx(ctx, tx, domain.EventBookingRefunded, booking, payment); err != nil {
					returnErr = domain.ErrInternal("failed to record event")
					return err
				}
			}

			result = payment
			return nil
		})
	})
	if err != nil {
		if returnErr != nil {
			return nil, returnErr
		}
		return nil, domain.ErrInternal("refund failed")
	}
	return result, nil
}

// BindProofInTx attaches an uploaded proof URL to a bank-transfer payment
// and moves it into PROCESSING while an admin reviews it.
func (s *Service) BindProofInTx(ctx context.Context, tx *gorm.DB, paymentID, proofURL string) (*domain.Payment, error) {
	payment, err := s.payments.FindByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load payment")
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID)
	}
	if payment.Method != domain.MethodBankTransfer {
		return nil, domain.ErrValidation("proofs can only be attached to bank transfer payments")
	}
	if payment.Status.Terminal() {
		return nil, domain.ErrIllegalPaymentTransition(payment.Status, domain.PaymentStatusProcessing)
	}

	payment.ProofURL = proofURL
	if payment.Status == domain.PaymentStatusPending {
		payment.Status = domain.PaymentStatusProcessing
	}
	if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
		return nil, domain.ErrInternal("failed to update payment")
	}
	return payment, nil
}

// CompleteFromProofInTx marks a bank-transfer payment COMPLETED after an
// admin verified its proof, exactly as a successful gateway verify would.
func (s *Service) CompleteFromProofInTx(ctx context.Context, tx *gorm.DB, paymentID string) (*domain.Payment, *domain.Booking, error) {
	payment, err := s.payments.FindByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, nil, domain.ErrInternal("failed to load payment")
	}
	if payment == nil {
		return nil, nil, domain.ErrNotFound("payment", paymentID)
	}

	booking, appErr := s.completeInTx(ctx, tx, payment, minorUnits(payment.AmountDisplay), payment.Currency, nil)
	if appErr != nil {
		return nil, nil, appErr
	}
	return payment, booking, nil
}

// ExpireStalePayments moves overdue attempts to EXPIRED and drops their
// bookings back to PENDING so the owner can retry.
func (s *Service) ExpireStalePayments(ctx context.Context, pendingTTL, processingTTL time.Duration) (int, error) {
	now := s.clock.Now()

	stalePending, err := s.payments.FindInStatusOlderThan(ctx, domain.PaymentStatusPending, now.Add(-pendingTTL))
	if err != nil {
		return 0, err
	}
	staleProcessing, err := s.payments.FindInStatusOlderThan(ctx, domain.PaymentStatusProcessing, now.Add(-processingTTL))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, p := range append(stalePending, staleProcessing...) {
		if err := s.expireOne(ctx, p.ID); err != nil {
			s.log.WithError(err).WithField("payment_id", p.ID).Warn("failed to expire payment")
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *Service) expireOne(ctx context.Context, paymentID string) error {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil || payment == nil {
		return err
	}

	return s.locks.Do(payment.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			payment, err := s.payments.FindByIDForUpdate(ctx, tx, paymentID)
			if err != nil || payment == nil {
				return err
			}
			if !payment.Status.CanTransitionTo(domain.PaymentStatusExpired) {
				return nil
			}

			payment.Status = domain.PaymentStatusExpired
			if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
				return err
			}
			return s.releaseBookingInTx(ctx, tx, payment, "")
		})
	})
}

func (s *Service) apply(ctx context.Context, paymentID string, status domain.GatewayStatus, amountMinor int64, currencyCode string, raw []byte) (*domain.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load payment")
	}
	if payment == nil {
		return nil, domain.ErrNotFound("payment", paymentID)
	}

	var result *domain.Payment
	var applyErr error
	var mismatch *domain.AppError

	lockErr := s.locks.Do(payment.BookingID, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result, mismatch, applyErr = s.applyInTx(ctx, tx, paymentID, status, amountMinor, currencyCode, raw)
			if applyErr != nil {
				return applyErr
			}
			return nil
		})
	})
	if lockErr != nil {
		if applyErr != nil {
			return nil, applyErr
		}
		return nil, domain.ErrInternal("failed to apply payment outcome")
	}
	if mismatch != nil {
		return nil, mismatch
	}
	return result, nil
}

// applyInTx is the single decision point for gateway outcomes. It is
// order-independent: outcomes that no longer apply are rejected by the
// transition guards and leave state unchanged. A mismatch is reported
// through the second return value so the FAILED transition it caused still
// commits; the third return value rolls the transaction back.
func (s *Service) applyInTx(ctx context.Context, tx *gorm.DB, paymentID string, status domain.GatewayStatus, amountMinor int64, currencyCode string, raw []byte) (*domain.Payment, *domain.AppError, error) {
	payment, err := s.payments.FindByIDForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, nil, domain.ErrInternal("failed to load payment")
	}
	if payment == nil {
		return nil, nil, domain.ErrNotFound("payment", paymentID)
	}

	switch status {
	case domain.GatewayStatusSuccess:
		if payment.Status == domain.PaymentStatusCompleted {
			return payment, nil, nil
		}
		if mismatch := s.checkMatch(payment, amountMinor, currencyCode); mismatch != nil {
			if failErr := s.failInTx(ctx, tx, payment, domain.FailReasonGatewayMismatch, raw); failErr != nil {
				return nil, nil, failErr
			}
			return payment, mismatch, nil
		}
		if _, appErr := s.completeInTx(ctx, tx, payment, amountMinor, currencyCode, raw); appErr != nil {
			return nil, nil, appErr
		}
		return payment, nil, nil

	case domain.GatewayStatusFailed:
		if payment.Status.Terminal() {
			return payment, nil, nil
		}
		if failErr := s.failInTx(ctx, tx, payment, "gateway_declined", raw); failErr != nil {
			return nil, nil, failErr
		}
		return payment, nil, nil

	default:
		// Gateway acknowledged the attempt but has not settled it.
		if payment.Status == domain.PaymentStatusPending {
			payment.Status = domain.PaymentStatusProcessing
			if raw != nil {
				payment.GatewayResponse = raw
			}
			if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
				return nil, nil, domain.ErrInternal("failed to update payment")
			}
		}
		return payment, nil, nil
	}
}

func (s *Service) completeInTx(ctx context.Context, tx *gorm.DB, payment *domain.Payment, amountMinor int64, currencyCode string, raw []byte) (*domain.Booking, error) {
	if !payment.Status.CanTransitionTo(domain.PaymentStatusCompleted) {
		return nil, domain.ErrIllegalPaymentTransition(payment.Status, domain.PaymentStatusCompleted)
	}

	otherCompleted, err := s.payments.CompletedExistsInTx(ctx, tx, payment.BookingID)
	if err != nil {
		return nil, domain.ErrInternal("failed to check existing payments")
	}
	if otherCompleted {
		return nil, domain.ErrIllegalPaymentTransition(payment.Status, domain.PaymentStatusCompleted)
	}

	payment.Status = domain.PaymentStatusCompleted
	if raw != nil {
		payment.GatewayResponse = raw
	}
	if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
		return nil, domain.ErrInternal("failed to update payment")
	}

	booking, err := s.bookings.FindByIDForUpdate(ctx, tx, payment.BookingID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load booking")
	}
	if booking == nil {
		return nil, domain.ErrNotFound("booking", payment.BookingID)
	}

	if !booking.Status.CanTransitionTo(domain.BookingStatusConfirmed) {
		return nil, domain.ErrIllegalBookingTransition(booking.Status, domain.BookingStatusConfirmed)
	}
	// One base-currency minor unit of tolerance absorbs cross-currency
	// rounding between the booking and payment snapshots.
	if payment.AmountBase.Sub(booking.AmountBase).Abs().GreaterThan(decimal.New(1, -2)) {
		return nil, domain.ErrGatewayMismatch("paid amount does not match the booking amount")
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := s.bookings.UpdateInTx(ctx, tx, booking); err != nil {
		return nil, domain.ErrInternal("failed to update booking")
	}
	if err := s.recorder.RecordInTx(ctx, tx, domain.EventBookingConfirmed, booking, payment); err != nil {
		return nil, domain.ErrInternal("failed to record event")
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": payment.ID,
	}).Info("payment completed, booking confirmed")
	return booking, nil
}

func (s *Service) failInTx(ctx context.Context, tx *gorm.DB, payment *domain.Payment, reason string, raw []byte) error {
	if !payment.Status.CanTransitionTo(domain.PaymentStatusFailed) {
		return domain.ErrIllegalPaymentTransition(payment.Status, domain.PaymentStatusFailed)
	}

	payment.Status = domain.PaymentStatusFailed
	payment.FailReason = reason
	if raw != nil {
		payment.GatewayResponse = raw
	}
	if err := s.payments.UpdateInTx(ctx, tx, payment); err != nil {
		return domain.ErrInternal("failed to update payment")
	}

	return s.releaseBookingInTx(ctx, tx, payment, domain.EventPaymentFailed)
}

// releaseBookingInTx drops a booking back to PENDING after a failed or
// expired attempt so retries stay permitted.
func (s *Service) releaseBookingInTx(ctx context.Context, tx *gorm.DB, payment *domain.Payment, eventName string) error {
	booking, err := s.bookings.FindByIDForUpdate(ctx, tx, payment.BookingID)
	if err != nil {
		return domain.ErrInternal("failed to load booking")
	}
	if booking == nil {
		return domain.ErrNotFound("booking", payment.BookingID)
	}

	if booking.Status == domain.BookingStatusPaymentPending {
		booking.Status = domain.BookingStatusPending
		if err := s.bookings.UpdateInTx(ctx, tx, booking); err != nil {
			return domain.ErrInternal("failed to update booking")
		}
	}
	if eventName != "" {
		if err := s.recorder.RecordInTx(ctx, tx, eventName, booking, payment); err != nil {
			return domain.ErrInternal("failed to record event")
		}
	}
	return nil
}

func (s *Service) checkMatch(payment *domain.Payment, amountMinor int64, currencyCode string) *domain.AppError {
	if currencyCode != "" && currencyCode != payment.Currency {
		return domain.ErrGatewayMismatch("gateway settled in a different currency than the payment")
	}
	if amountMinor != 0 && amountMinor != minorUnits(payment.AmountDisplay) {
		return domain.ErrGatewayMismatch("gateway settled a different amount than the payment")
	}
	return nil
}

func (s *Service) openPayment(ctx context.Context, tx *gorm.DB, booking *domain.Booking, method domain.PaymentMethod) (*domain.Payment, error) {
	amountBase, err := s.engine.Convert(ctx, booking.AmountDisplay, booking.Currency, domain.BaseCurrency)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:            uuid.NewString(),
		BookingID:     booking.ID,
		Method:        method,
		Status:        domain.PaymentStatusPending,
		Currency:      booking.Currency,
		AmountDisplay: booking.AmountDisplay,
		AmountBase:    amountBase,
	}

	if _, err := reference.WithRetry(reference.PrefixPayment, func(ref string) (bool, error) {
		taken, err := s.payments.ReferenceExistsInTx(ctx, tx, ref)
		if err != nil || taken {
			return false, err
		}
		payment.Reference = ref
		return true, nil
	}); err != nil {
		return nil, err
	}

	if method == domain.MethodBankTransfer {
		if _, err := reference.WithRetry(reference.PrefixTransfer, func(ref string) (bool, error) {
			taken, err := s.payments.TransferReferenceExistsInTx(ctx, tx, ref)
			if err != nil || taken {
				return false, err
			}
			payment.TransferReference = ref
			return true, nil
		}); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

// findSettledForUpdate locks the payment that settled the booking. A
// refunded payment is still returned so repeat refund attempts surface a
// payment-level transition error.
func (s *Service) findSettledForUpdate(ctx context.Context, tx *gorm.DB, bookingID string) (*domain.Payment, error) {
	payments, err := s.payments.FindByBooking(gormdb.WithTx(ctx, tx), bookingID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list payments")
	}
	var refunded *domain.Payment
	for i := range payments {
		switch payments[i].Status {
		case domain.PaymentStatusCompleted:
			return s.payments.FindByIDForUpdate(ctx, tx, payments[i].ID)
		case domain.PaymentStatusRefunded:
			refunded = &payments[i]
		}
	}
	if refunded != nil {
		return s.payments.FindByIDForUpdate(ctx, tx, refunded.ID)
	}
	return nil, domain.ErrValidation("booking has no completed payment to refund")
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func validateIdempotencyKey(key string) error {
	if key == "" {
		return domain.ErrIdempotencyKeyMissing()
	}
	if len(key) > 64 {
		return domain.ErrIdempotencyKeyTooLong()
	}
	return nil
}

func validateInitialize(req InitializeRequest) error {
	var reasons []string

	if req.BookingID == "" {
		reasons = append(reasons, "booking_id is required")
	}
	if req.Method == "" {
		reasons = append(reasons, "payment_method is required")
	} else if !domain.ValidPaymentMethods[req.Method] {
		reasons = append(reasons, "payment_method is not supported")
	}

	if len(reasons) > 0 {
		return domain.ErrValidation(reasons...)
	}
	return nil
}
