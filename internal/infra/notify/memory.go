package notify

import (
	"context"
	"sync"

	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
)

// Memory is a synchronous sink that keeps every event.
type Memory struct {
	mu     sync.Mutex
	events []notification.Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Send(_ context.Context, ev notification.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

func (m *Memory) Deliver(ctx context.Context, ev notification.Event) error {
	m.Send(ctx, ev)
	return nil
}

func (m *Memory) Events() []notification.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the recorded events of type t.
func (m *Memory) OfType(t notification.EventType) []notification.Event {
	var out []notification.Event
	for _, ev := range m.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

var _ notification.Sink = (*Memory)(nil)
