package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type Outcome string

const (
	OutcomeCaptured     Outcome = "captured"
	OutcomeDeclined     Outcome = "declined"
	OutcomeAlreadyFinal Outcome = "already_final"
)

type CaptureOptions struct {
	// Override lets staff capture before the due date.
	Override bool
	ActorID  *uint
}

type CaptureResult struct {
	Client  *models.Client
	Outcome Outcome
}

// CaptureDue captures the client's hold once the cancellation period is
// over. A hold that is already final is a no-op, so repeated calls reach
// the gateway at most once per hold. A decline moves the client to
// payment_failed and is reported as OutcomeDeclined; an unknown gateway
// outcome returns ErrGatewayTimeout and changes nothing.
func (o *Orchestrator) CaptureDue(
	ctx context.Context,
	clientID uint,
	opts CaptureOptions,
) (CaptureResult, error) {

	c, err := o.repo.Load(ctx, clientID)
	if err != nil {
		return CaptureResult{}, err
	}

	h := c.PaymentHold
	if h == nil {
		return CaptureResult{}, payment.ErrNoActiveHold
	}
	if payment.HoldStatus(h.Status).Final() {
		return CaptureResult{Client: c, Outcome: OutcomeAlreadyFinal}, nil
	}
	if _, err := stage.Next(stage.Stage(c.Stage), stage.CaptureSucceeded); err != nil {
		return CaptureResult{}, err
	}

	now := o.now()
	if !opts.Override && (c.PaymentDueAt == nil || now.Before(*c.PaymentDueAt)) {
		return CaptureResult{}, fmt.Errorf("%w: payment not due yet", domain.ErrPreconditionFailed)
	}

	log := o.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"hold_id":   h.HoldID,
	})

	gctx, cancel := o.gatewayCtx(ctx)
	gwErr := payment.Classify(o.gateway.Capture(gctx, h.HoldID))
	cancel()

	if gwErr != nil && !errors.Is(gwErr, payment.ErrGatewayDeclined) {
		log.WithError(gwErr).Warn("capture outcome unknown, leaving hold for reconciliation")
		return CaptureResult{}, gwErr
	}

	status, ev, outcome := payment.HoldCaptured, stage.CaptureSucceeded, OutcomeCaptured
	if gwErr != nil {
		status, ev, outcome = payment.HoldFailed, stage.CaptureFailed, OutcomeDeclined
	}

	var tr domain.Transition
	applied := false
	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		if c.PaymentHold == nil {
			return payment.ErrNoActiveHold
		}
		if payment.HoldStatus(c.PaymentHold.Status).Final() {
			return domain.ErrNoChange
		}
		t, err := domain.Apply(c, ev, now)
		if err != nil {
			return err
		}
		c.PaymentHold.Status = string(status)
		c.PaymentHold.FinalizedAt = ptrTime(now)
		c.PaymentHold.UpdatedAt = now
		c.PaymentDueAt = nil
		tr = t
		applied = true
		return nil
	})
	if err != nil {
		log.WithError(err).Error("capture result could not be recorded")
		return CaptureResult{}, err
	}
	if !applied {
		return CaptureResult{Client: saved, Outcome: OutcomeAlreadyFinal}, nil
	}

	meta := map[string]any{
		"hold_id":  h.HoldID,
		"override": opts.Override,
	}
	o.announce.Transition(ctx, clientID, tr, opts.ActorID, meta)

	if outcome == OutcomeDeclined {
		log.WithError(gwErr).Warn("capture declined")
		o.announce.Notify(ctx, notification.EventPaymentDeclined, clientID, now, map[string]any{
			"hold_id": h.HoldID,
			"reason":  gwErr.Error(),
		})
	} else {
		log.Info("payment captured")
		o.announce.Notify(ctx, notification.EventPaymentCaptured, clientID, now, map[string]any{
			"hold_id":            h.HoldID,
			"amount_minor_units": h.AmountMinorUnits,
		})
	}

	return CaptureResult{Client: saved, Outcome: outcome}, nil
}
