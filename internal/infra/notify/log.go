package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
)

// LogDeliverer writes events to the log. It stands in for a real transport
// until one is configured.
type LogDeliverer struct {
	logger logrus.FieldLogger
}

func NewLogDeliverer(logger logrus.FieldLogger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (l *LogDeliverer) Deliver(_ context.Context, ev notification.Event) error {
	l.logger.WithFields(logrus.Fields{
		"client_id": ev.ClientID,
		"type":      ev.Type,
		"payload":   ev.Payload,
	}).Info("notification delivered")
	return nil
}
