package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

const dispatchBatchSize = 100

// Dispatcher pushes undelivered outbox events to the notification
// collaborator. Delivery is at-least-once: an event is only marked
// delivered after Send returns, so a crash in between produces a
// duplicate, never a loss.
type Dispatcher struct {
	outbox   domain.OutboxRepository
	notifier domain.Notifier
	clock    domain.Clock
	interval time.Duration
	log      *logrus.Entry
}

func NewDispatcher(outbox domain.OutboxRepository, notifier domain.Notifier, clock domain.Clock, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		outbox:   outbox,
		notifier: notifier,
		clock:    clock,
		interval: interval,
		log:      logrus.WithField("component", "dispatcher"),
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

func (d *Dispatcher) DispatchOnce(ctx context.Context) {
	events, err := d.outbox.FindUndelivered(ctx, dispatchBatchSize)
	if err != nil {
		d.log.WithError(err).Warn("failed to load undelivered events")
		return
	}

	for _, event := range events {
		if err := d.notifier.Send(ctx, event); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"event_id": event.ID,
				"name":     event.Name,
			}).Warn("event delivery failed")
			if err := d.outbox.RecordAttempt(ctx, event.ID); err != nil {
				d.log.WithError(err).Warn("failed to record delivery attempt")
			}
			continue
		}
		if err := d.outbox.MarkDelivered(ctx, event.ID, d.clock.Now()); err != nil {
			d.log.WithError(err).Warn("failed to mark event delivered")
		}
	}
}
