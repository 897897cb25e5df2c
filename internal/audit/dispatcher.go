package audit

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Event struct {
	ClientID  uint
	ActorID   *uint
	Action    string
	FromStage string
	ToStage   string
	Metadata  any
}

type Dispatcher struct {
	recorder Recorder
	logger   logrus.FieldLogger
	queue    chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(recorder Recorder, logger logrus.FieldLogger) *Dispatcher {
	d := &Dispatcher{
		recorder: recorder,
		logger:   logger.WithField("component", "audit"),
		queue:    make(chan Event, 100),
		done:     make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.recorder.Record(ev); err != nil {
			d.logger.WithError(err).WithField("client_id", ev.ClientID).Error("audit record failed")
		}
	}
}

// Dispatch enqueues ev. A full queue drops the event rather than blocking
// the caller. A nil Dispatcher discards.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.logger.WithField("action", ev.Action).Warn("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be recorded.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
