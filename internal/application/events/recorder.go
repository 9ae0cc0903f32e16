package events

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// Recorder writes outbox events inside the same transaction as the state
// transition that caused them. Snowflake ids give consumers a monotonically
// increasing sequence.
type Recorder struct {
	node   *snowflake.Node
	outbox domain.OutboxRepository
}

func NewRecorder(outbox domain.OutboxRepository) (*Recorder, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Recorder{node: node, outbox: outbox}, nil
}

func (r *Recorder) RecordInTx(ctx context.Context, tx *gorm.DB, name string, booking *domain.Booking, payment *domain.Payment) error {
	payload := map[string]interface{}{
		"booking_id":        booking.ID,
		"booking_reference": booking.Reference,
		"booking_status":    booking.Status,
		"currency":          booking.Currency,
		"amount_display":    booking.AmountDisplay,
		"amount_base":       booking.AmountBase,
		"owner_email":       booking.CustomerEmail,
	}

	event := &domain.OutboxEvent{
		ID:         uuid.NewString(),
		Name:       name,
		Sequence:   r.node.Generate().Int64(),
		BookingID:  booking.ID,
		OwnerEmail: booking.CustomerEmail,
	}

	if payment != nil {
		event.PaymentID = payment.ID
		payload["payment_id"] = payment.ID
		payload["payment_reference"] = payment.Reference
		payload["payment_status"] = payment.Status
		payload["payment_method"] = payment.Method
		if payment.FailReason != "" {
			payload["fail_reason"] = payment.FailReason
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event.Payload = data

	return r.outbox.CreateInTx(ctx, tx, event)
}

// RecordRawInTx is used for events not tied to a single booking, like the
// daily report.
func (r *Recorder) RecordRawInTx(ctx context.Context, tx *gorm.DB, name string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.outbox.CreateInTx(ctx, tx, &domain.OutboxEvent{
		ID:       uuid.NewString(),
		Name:     name,
		Sequence: r.node.Generate().Int64(),
		Payload:  data,
	})
}
