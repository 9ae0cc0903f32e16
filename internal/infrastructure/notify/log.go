package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// LogNotifier writes events to the application log. It stands in for the
// mail and push channels downstream systems attach to the outbox.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logrus.WithField("component", "notify")}
}

func (n *LogNotifier) Send(_ context.Context, event domain.OutboxEvent) error {
	n.log.WithFields(logrus.Fields{
		"event_id":    event.ID,
		"name":        event.Name,
		"sequence":    event.Sequence,
		"booking_id":  event.BookingID,
		"owner_email": event.OwnerEmail,
	}).Info("event delivered")
	return nil
}
