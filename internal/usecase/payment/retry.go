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

type RetryResult struct {
	Client  *models.Client
	Outcome Outcome
	// Attempts counts every definitive retry outcome so far.
	Attempts int
	// Exhausted is set once a decline used the last allowed attempt.
	Exhausted bool
}

// RetryCharge charges the hold amount again for a client in payment_failed.
// Each attempt carries its own idempotency key, so repeating an attempt
// whose outcome was unknown cannot charge twice.
func (o *Orchestrator) RetryCharge(
	ctx context.Context,
	clientID uint,
	actorID *uint,
) (RetryResult, error) {

	c, err := o.repo.Load(ctx, clientID)
	if err != nil {
		return RetryResult{}, err
	}
	if _, err := stage.Next(stage.Stage(c.Stage), stage.RetryPaymentSucceeded); err != nil {
		return RetryResult{}, err
	}
	h := c.PaymentHold
	if h == nil {
		return RetryResult{}, payment.ErrNoActiveHold
	}
	if c.RetryAttempts >= o.cfg.MaxRetryCharges {
		return RetryResult{Client: c, Attempts: c.RetryAttempts, Exhausted: true},
			fmt.Errorf("%w: %d of %d attempts used", payment.ErrRetryLimitReached, c.RetryAttempts, o.cfg.MaxRetryCharges)
	}

	attempt := c.RetryAttempts + 1
	key := fmt.Sprintf("%s-retry-%d", h.HoldID, attempt)
	log := o.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"attempt":   attempt,
		"key":       key,
	})

	gctx, cancel := o.gatewayCtx(ctx)
	chargeID, gwErr := o.gateway.Charge(gctx, payment.ChargeRequest{
		ClientID:         c.ID,
		AmountMinorUnits: h.AmountMinorUnits,
		PaymentMethodRef: c.PaymentMethodRef,
		PayerEmail:       c.Email,
		IdempotencyKey:   key,
	})
	cancel()
	gwErr = payment.Classify(gwErr)

	if gwErr != nil && !errors.Is(gwErr, payment.ErrGatewayDeclined) {
		log.WithError(gwErr).Warn("retry charge outcome unknown")
		return RetryResult{}, gwErr
	}

	now := o.now()
	declined := gwErr != nil
	var tr domain.Transition
	transitioned := false

	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		transitioned = false
		if stage.Stage(c.Stage) != stage.PaymentFailed || c.RetryAttempts >= attempt {
			return domain.ErrNoChange
		}
		c.RetryAttempts = attempt
		if declined {
			return nil
		}
		t, err := domain.Apply(c, stage.RetryPaymentSucceeded, now)
		if err != nil {
			return err
		}
		c.LastChargeID = chargeID
		tr = t
		transitioned = true
		return nil
	})
	if err != nil {
		log.WithError(err).Error("retry result could not be recorded")
		return RetryResult{}, err
	}

	res := RetryResult{Client: saved, Attempts: saved.RetryAttempts}
	meta := map[string]any{"attempt": attempt, "key": key}

	if declined {
		res.Outcome = OutcomeDeclined
		res.Exhausted = saved.RetryAttempts >= o.cfg.MaxRetryCharges
		log.WithError(gwErr).Warn("retry charge declined")
		meta["reason"] = gwErr.Error()
		o.announce.Action(clientID, actorID, "retry_declined", meta)
		o.announce.Notify(ctx, notification.EventRetryDeclined, clientID, now, map[string]any{
			"attempt":   attempt,
			"exhausted": res.Exhausted,
		})
		return res, nil
	}

	res.Outcome = OutcomeCaptured
	if transitioned {
		meta["charge_id"] = chargeID
		o.announce.Transition(ctx, clientID, tr, actorID, meta)
		log.Info("retry charge succeeded")
	}
	return res, nil
}

// ExhaustRetries gives up on a payment_failed client and cancels it.
func (o *Orchestrator) ExhaustRetries(
	ctx context.Context,
	clientID uint,
	actorID *uint,
) (*models.Client, error) {

	var tr domain.Transition
	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		t, err := domain.Apply(c, stage.RetryExhausted, o.now())
		if err != nil {
			return err
		}
		tr = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.announce.Transition(ctx, clientID, tr, actorID, map[string]any{
		"retry_attempts": saved.RetryAttempts,
	})
	return saved, nil
}
