package stage

import (
	"fmt"

	"github.com/BruksfildServices01/client-portal/internal/httperr"
)

// ===============================
// Client Stage
// ===============================

type Stage string

const (
	Lead           Stage = "lead"
	Onboarding     Stage = "onboarding"
	PendingPayment Stage = "pending_payment"
	Active         Stage = "active"
	PaymentFailed  Stage = "payment_failed"
	Cancelled      Stage = "cancelled"
)

var ErrUnknownStage = httperr.ErrBusiness(httperr.CodeUnknownStage)

// All lists every stage in lifecycle order.
var All = []Stage{Lead, Onboarding, PendingPayment, Active, PaymentFailed, Cancelled}

func (s Stage) Valid() bool {
	switch s {
	case Lead, Onboarding, PendingPayment, Active, PaymentFailed, Cancelled:
		return true
	}
	return false
}

func (s Stage) Terminal() bool {
	return s == Cancelled
}

// RequiresHold reports whether a client in s must carry a payment hold.
func (s Stage) RequiresHold() bool {
	switch s {
	case PendingPayment, Active, PaymentFailed:
		return true
	}
	return false
}

func Parse(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return s, nil
}
