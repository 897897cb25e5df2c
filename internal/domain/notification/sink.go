package notification

import (
	"context"
	"time"
)

type EventType string

const (
	EventStageChanged    EventType = "stage_changed"
	EventPortalInvite    EventType = "portal_invite"
	EventPaymentCaptured EventType = "payment_captured"
	EventPaymentDeclined EventType = "payment_declined"
	EventPaymentReminder EventType = "payment_reminder"
	EventHoldReleased    EventType = "hold_released"
	EventRetryDeclined   EventType = "retry_declined"
)

type Event struct {
	Type       EventType      `json:"type"`
	ClientID   uint           `json:"client_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink delivers events fire-and-forget; delivery is not guaranteed.
type Sink interface {
	Send(ctx context.Context, ev Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Send(context.Context, Event) {}
