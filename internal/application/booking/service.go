package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/application/currency"
	"github.com/stanmart1/skylyt-core/internal/application/events"
	"github.com/stanmart1/skylyt-core/internal/domain"
	"github.com/stanmart1/skylyt-core/internal/utils/lockmap"
	"github.com/stanmart1/skylyt-core/internal/utils/reference"
)

type CreateRequest struct {
	OwnerID       string             `json:"owner_id"`
	Type          domain.BookingType `json:"type"`
	Currency      string             `json:"currency"`
	Amount        decimal.Decimal    `json:"amount"`
	StartDate     time.Time          `json:"start_date"`
	EndDate       time.Time          `json:"end_date"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Payload       json.RawMessage    `json:"payload,omitempty"`
}

type Service struct {
	db       *gorm.DB
	bookings domain.BookingRepository
	engine   *currency.Engine
	recorder *events.Recorder
	locks    *lockmap.LockMap
	clock    domain.Clock
	log      *logrus.Entry
}

func NewService(
	db *gorm.DB,
	bookings domain.BookingRepository,
	engine *currency.Engine,
	recorder *events.Recorder,
	locks *lockmap.LockMap,
	clock domain.Clock,
) *Service {
	return &Service{
		db:       db,
		bookings: bookings,
		engine:   engine,
		recorder: recorder,
		locks:    locks,
		clock:    clock,
		log:      logrus.WithField("component", "booking"),
	}
}

// Create opens a booking in PENDING. The base-currency amount is snapshot
// here and never recomputed afterwards.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Booking, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	amountBase, err := s.engine.Convert(ctx, req.Amount, req.Currency, domain.BaseCurrency)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		Type:          req.Type,
		Payload:       []byte(req.Payload),
		Currency:      req.Currency,
		AmountDisplay: req.Amount.Round(2),
		AmountBase:    amountBase,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Status:        domain.BookingStatusPending,
	}
	if req.Type == domain.BookingTypeCar {
		booking.TripStatus = domain.TripStatusNotStarted
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, refErr := reference.WithRetry(reference.PrefixBooking, func(ref string) (bool, error) {
			taken, err := s.bookings.ReferenceExistsInTx(ctx, tx, ref)
			if err != nil {
				return false, err
			}
			if taken {
				return false, nil
			}
			booking.Reference = ref
			return true, s.bookings.CreateInTx(ctx, tx, booking)
		})
		if refErr != nil {
			return refErr
		}
		return s.recorder.RecordInTx(ctx, tx, domain.EventBookingCreated, booking, nil)
	})
	if txErr != nil {
		if appErr, ok := txErr.(*domain.AppError); ok {
			return nil, appErr
		}
		return nil, domain.ErrInternal("failed to create booking")
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"reference":  booking.Reference,
	}).Info("booking created")
	return booking, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to load booking")
	}
	if booking == nil {
		return nil, domain.ErrNotFound("booking", id)
	}
	return booking, nil
}

// Cancel soft-closes a booking. Only allowed before confirmation.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	return s.transition(ctx, id, domain.BookingStatusCancelled, domain.EventBookingCancelled, nil)
}

// Complete finishes a confirmed booking once its window has elapsed.
func (s *Service) Complete(ctx context.Context, id string) (*domain.Booking, error) {
	guard := func(booking *domain.Booking) error {
		if s.clock.Now().Before(booking.EndDate) {
			return domain.ErrValidation("booking window has not elapsed")
		}
		return nil
	}
	return s.transition(ctx, id, domain.BookingStatusCompleted, domain.EventBookingCompleted, guard)
}

func (s *Service) transition(ctx context.Context, id string, target domain.BookingStatus, eventName string, guard func(*domain.Booking) error) (*domain.Booking, error) {
	var result *domain.Booking
	var returnErr error

	err := s.locks.Do(id, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			booking, err := s.bookings.FindByIDForUpdate(ctx, tx, id)
			if err != nil {
				returnErr = domain.ErrInternal("failed to load booking")
				return err
			}
			if booking == nil {
				returnErr = domain.ErrNotFound("booking", id)
				return returnErr
			}

			if !booking.Status.CanTransitionTo(target) {
				returnErr = domain.ErrIllegalBookingTransition(booking.Status, target)
				return returnErr
			}
			if guard != nil {
				if err := guard(booking); err != nil {
					returnErr = err
					return err
				}
			}

			booking.Status = target
			if target == domain.BookingStatusCompleted && booking.Type == domain.BookingTypeCar {
				booking.TripStatus = domain.TripStatusDone
			}
			if err := s.bookings.UpdateInTx(ctx, tx, booking); err != nil {
				returnErr = domain.ErrInternal("failed to update booking")
				return err
			}
			if err := s.recorder.RecordInTx(ctx, tx, eventName, booking, nil); err != nil {
				returnErr = domain.ErrInternal("failed to record event")
				return err
			}

			result = booking
			return nil
		})
	})
	if err != nil {
		if returnErr != nil {
			return nil, returnErr
		}
		return nil, domain.ErrInternal("booking transition failed")
	}
	return result, nil
}

func validateCreate(req CreateRequest) error {
	var reasons []string

	if req.OwnerID == "" {
		reasons = append(reasons, "owner_id is required")
	}
	if !domain.ValidBookingTypes[req.Type] {
		reasons = append(reasons, "type must be HOTEL or CAR")
	}
	if req.Currency == "" {
		reasons = append(reasons, "currency is required")
	}
	if !req.Amount.IsPositive() {
		reasons = append(reasons, "amount must be greater than 0")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || !req.EndDate.After(req.StartDate) {
		reasons = append(reasons, "end_date must be after start_date")
	}
	if req.CustomerEmail == "" {
		reasons = append(reasons, "customer_email is required")
	}

	if len(reasons) > 0 {
		return domain.ErrValidation(reasons...)
	}
	return nil
}
