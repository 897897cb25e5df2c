package notify

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
)

// Deliverer hands one event to a transport (email, SMS, webhook).
type Deliverer interface {
	Deliver(ctx context.Context, ev notification.Event) error
}

// Dispatcher is the asynchronous notification.Sink: events are queued and
// delivered by a single worker, and dropped when the queue is full.
type Dispatcher struct {
	deliverer Deliverer
	logger    logrus.FieldLogger
	timeout   time.Duration
	queue     chan notification.Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(deliverer Deliverer, buffer int, timeout time.Duration, logger logrus.FieldLogger) *Dispatcher {
	if buffer <= 0 {
		buffer = 100
	}
	d := &Dispatcher{
		deliverer: deliverer,
		logger:    logger.WithField("component", "notify"),
		timeout:   timeout,
		queue:     make(chan notification.Event, buffer),
		done:      make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.deliverer.Deliver(ctx, ev); err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"client_id": ev.ClientID,
				"type":      ev.Type,
			}).Warn("notification delivery failed")
		}
		cancel()
	}
}

func (d *Dispatcher) Send(_ context.Context, ev notification.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.WithField("type", ev.Type).Warn("notification queue full, dropping event")
	}
}

func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

var _ notification.Sink = (*Dispatcher)(nil)
