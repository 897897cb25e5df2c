package client

import (
	"fmt"

	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

// CheckInvariants validates the aggregate before it is written.
func CheckInvariants(c *models.Client) error {
	s := stage.Stage(c.Stage)
	if !s.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvariantViolated, c.Stage)
	}

	h := c.PaymentHold
	if s.RequiresHold() && h == nil {
		return fmt.Errorf("%w: stage %s without payment hold", ErrInvariantViolated, s)
	}
	if s == stage.Lead && h != nil {
		return fmt.Errorf("%w: lead with payment hold", ErrInvariantViolated)
	}

	if h != nil {
		st := payment.HoldStatus(h.Status)
		if !st.Valid() {
			return fmt.Errorf("%w: unknown hold status %q", ErrInvariantViolated, h.Status)
		}
		if h.HoldID == "" || h.AmountMinorUnits <= 0 {
			return fmt.Errorf("%w: incomplete hold", ErrInvariantViolated)
		}
		if st.Final() && h.FinalizedAt == nil {
			return fmt.Errorf("%w: final hold without finalized_at", ErrInvariantViolated)
		}
	}

	if c.PaymentDueAt != nil {
		if s != stage.PendingPayment || h == nil || payment.HoldStatus(h.Status) != payment.HoldAuthorized {
			return fmt.Errorf("%w: payment_due_at outside an authorized pending payment", ErrInvariantViolated)
		}
		if c.PaymentDueAt.Before(c.StageEnteredAt) {
			return fmt.Errorf("%w: payment_due_at before stage entry", ErrInvariantViolated)
		}
	}
	return nil
}
