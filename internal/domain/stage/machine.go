package stage

import (
	"fmt"

	"github.com/BruksfildServices01/client-portal/internal/httperr"
)

var ErrIllegalTransition = httperr.ErrBusiness(httperr.CodeIllegalTransition)

type edge struct {
	from  Stage
	event Event
}

// transitions is the complete edge table. staffForceCancel is added for
// every non-terminal stage in init.
var transitions = map[edge]Stage{
	{Lead, SendPortalInvite}:               Onboarding,
	{Lead, ClientRequestsStart}:            Onboarding,
	{Onboarding, CroaSigned}:               PendingPayment,
	{PendingPayment, CaptureSucceeded}:     Active,
	{PendingPayment, CaptureFailed}:        PaymentFailed,
	{PaymentFailed, RetryPaymentSucceeded}: Active,
	{PaymentFailed, RetryExhausted}:        Cancelled,
	{PaymentFailed, ClientCancels}:         Cancelled,
	{Onboarding, HoldExpired}:              Cancelled,
	{PendingPayment, HoldExpired}:          Cancelled,
}

func init() {
	for _, s := range All {
		if !s.Terminal() {
			transitions[edge{s, StaffForceCancel}] = Cancelled
		}
	}
}

// Next returns the stage reached by applying ev to from. It never mutates
// anything; an event not accepted by from yields ErrIllegalTransition.
func Next(from Stage, ev Event) (Stage, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, from)
	}
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return "", fmt.Errorf("%w: %s not allowed from %s", ErrIllegalTransition, ev, from)
	}
	return to, nil
}

func CanApply(from Stage, ev Event) bool {
	_, err := Next(from, ev)
	return err == nil
}

// Accepts lists the events accepted by from.
func Accepts(from Stage) []Event {
	var out []Event
	for _, ev := range allEvents {
		if CanApply(from, ev) {
			out = append(out, ev)
		}
	}
	return out
}

var allEvents = []Event{
	SendPortalInvite,
	ClientRequestsStart,
	CroaSigned,
	CaptureSucceeded,
	CaptureFailed,
	RetryPaymentSucceeded,
	RetryExhausted,
	ClientCancels,
	HoldExpired,
	StaffForceCancel,
}
