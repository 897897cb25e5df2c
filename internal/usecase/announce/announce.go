// Package announce records applied transitions in the audit trail and
// tells the notification sink about them.
package announce

import (
	"context"
	"time"

	"github.com/BruksfildServices01/client-portal/internal/audit"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
)

type Announcer struct {
	audit *audit.Dispatcher
	sink  notification.Sink
}

func New(auditDispatcher *audit.Dispatcher, sink notification.Sink) *Announcer {
	if sink == nil {
		sink = notification.Discard{}
	}
	return &Announcer{audit: auditDispatcher, sink: sink}
}

func (a *Announcer) Transition(
	ctx context.Context,
	clientID uint,
	tr domain.Transition,
	actorID *uint,
	meta map[string]any,
) {
	a.audit.Dispatch(audit.Event{
		ClientID:  clientID,
		ActorID:   actorID,
		Action:    string(tr.Event),
		FromStage: string(tr.From),
		ToStage:   string(tr.To),
		Metadata:  meta,
	})

	payload := map[string]any{
		"event": string(tr.Event),
		"from":  string(tr.From),
		"to":    string(tr.To),
	}
	for k, v := range meta {
		payload[k] = v
	}
	a.sink.Send(ctx, notification.Event{
		Type:       notification.EventStageChanged,
		ClientID:   clientID,
		Payload:    payload,
		OccurredAt: tr.At,
	})
}

// Action records a non-transition change such as a hold authorization.
func (a *Announcer) Action(clientID uint, actorID *uint, action string, meta map[string]any) {
	a.audit.Dispatch(audit.Event{
		ClientID: clientID,
		ActorID:  actorID,
		Action:   action,
		Metadata: meta,
	})
}

func (a *Announcer) Notify(
	ctx context.Context,
	t notification.EventType,
	clientID uint,
	at time.Time,
	payload map[string]any,
) {
	a.sink.Send(ctx, notification.Event{
		Type:       t,
		ClientID:   clientID,
		Payload:    payload,
		OccurredAt: at,
	})
}
