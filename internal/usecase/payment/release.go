package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type ReleaseOptions struct {
	// Then is applied in the same save as the release. Empty leaves the
	// stage alone, which is only allowed during onboarding where a new
	// hold can replace the released one.
	Then    stage.Event
	ActorID *uint
	Reason  string

	// Require is checked against the loaded client before the gateway is
	// asked to release and again inside the save.
	Require func(*models.Client) error
}

// ReleaseHold returns the reserved funds to the client. Releasing an
// already released hold is a no-op; a captured or failed hold has nothing
// left to release and yields ErrNoActiveHold.
func (o *Orchestrator) ReleaseHold(
	ctx context.Context,
	clientID uint,
	opts ReleaseOptions,
) (*models.Client, error) {

	c, err := o.repo.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if opts.Then != "" {
		if _, err := stage.Next(stage.Stage(c.Stage), opts.Then); err != nil {
			return nil, err
		}
	}

	h := c.PaymentHold
	if h == nil {
		return nil, payment.ErrNoActiveHold
	}
	switch payment.HoldStatus(h.Status) {
	case payment.HoldReleased, payment.HoldAuthorized:
	default:
		return nil, fmt.Errorf("%w: hold is %s", payment.ErrNoActiveHold, h.Status)
	}
	if err := releaseAllowed(c, opts); err != nil {
		return nil, err
	}
	if payment.HoldStatus(h.Status) == payment.HoldReleased && opts.Then == "" {
		return c, nil
	}
	if payment.HoldStatus(h.Status) == payment.HoldAuthorized {
		if err := o.releaseAtGateway(ctx, clientID, h.HoldID); err != nil {
			return nil, err
		}
	}

	now := o.now()
	var tr domain.Transition
	released, transitioned := false, false

	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		released, transitioned = false, false
		if err := releaseAllowed(c, opts); err != nil {
			return err
		}
		h := c.PaymentHold
		if h == nil {
			return payment.ErrNoActiveHold
		}
		switch payment.HoldStatus(h.Status) {
		case payment.HoldAuthorized:
			h.Status = string(payment.HoldReleased)
			h.FinalizedAt = ptrTime(now)
			h.UpdatedAt = now
			c.PaymentDueAt = nil
			released = true
		case payment.HoldReleased:
		default:
			return fmt.Errorf("%w: hold is %s", payment.ErrNoActiveHold, h.Status)
		}

		if opts.Then != "" {
			t, err := domain.Apply(c, opts.Then, now)
			if err != nil {
				return err
			}
			tr = t
			transitioned = true
		}
		if !released && !transitioned {
			return domain.ErrNoChange
		}
		return nil
	})
	if err != nil {
		if payment.HoldStatus(h.Status) == payment.HoldAuthorized {
			o.logger.WithFields(logrus.Fields{
				"client_id": clientID,
				"hold_id":   h.HoldID,
			}).WithError(err).Error("hold released at gateway but not recorded")
		}
		return nil, err
	}

	if released {
		meta := map[string]any{"hold_id": h.HoldID}
		if opts.Reason != "" {
			meta["reason"] = opts.Reason
		}
		o.announce.Action(clientID, opts.ActorID, "hold_released", meta)
		o.announce.Notify(ctx, notification.EventHoldReleased, clientID, now, meta)
	}
	if transitioned {
		o.announce.Transition(ctx, clientID, tr, opts.ActorID, map[string]any{"hold_id": h.HoldID})
	}
	return saved, nil
}

// releaseAllowed rejects a release the client no longer qualifies for.
func releaseAllowed(c *models.Client, opts ReleaseOptions) error {
	if opts.Require != nil {
		if err := opts.Require(c); err != nil {
			return err
		}
	}
	if opts.Then == "" && stage.Stage(c.Stage) != stage.Onboarding {
		return fmt.Errorf("%w: a hold is released without a stage change only during onboarding, client is %s",
			domain.ErrPreconditionFailed, c.Stage)
	}
	return nil
}

func (o *Orchestrator) releaseAtGateway(ctx context.Context, clientID uint, holdID string) error {
	gctx, cancel := o.gatewayCtx(ctx)
	defer cancel()

	err := payment.Classify(o.gateway.Release(gctx, holdID))
	if err == nil {
		return nil
	}

	log := o.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"hold_id":   holdID,
	}).WithError(err)
	if errors.Is(err, payment.ErrGatewayDeclined) {
		log.Error("gateway refused hold release")
	} else {
		log.Warn("hold release outcome unknown")
	}
	return err
}

// ExpireHold releases a hold whose onboarding never completed within the
// expiry window and cancels the client.
// Staleness is re-checked on every load so a croaSigned landing mid-way
// keeps the hold.
func (o *Orchestrator) ExpireHold(ctx context.Context, clientID uint) (*models.Client, error) {
	return o.ReleaseHold(ctx, clientID, ReleaseOptions{
		Then:    stage.HoldExpired,
		Reason:  "expired",
		Require: o.requireStale,
	})
}

func (o *Orchestrator) requireStale(c *models.Client) error {
	if !o.IsStale(c) {
		return fmt.Errorf("%w: hold is not stale", domain.ErrPreconditionFailed)
	}
	return nil
}

// IsStale reports whether c holds an authorization older than the expiry
// window without having completed onboarding.
func (o *Orchestrator) IsStale(c *models.Client) bool {
	h := c.PaymentHold
	if h == nil || payment.HoldStatus(h.Status) != payment.HoldAuthorized {
		return false
	}
	if c.OnboardingCompletedAt != nil {
		return false
	}
	if !stage.CanApply(stage.Stage(c.Stage), stage.HoldExpired) {
		return false
	}
	return o.now().Sub(h.CreatedAt) > o.cfg.HoldExpiry
}

// StaleBefore is the creation cutoff used to scan for stale holds.
func (o *Orchestrator) StaleBefore() time.Time {
	return o.now().Add(-o.cfg.HoldExpiry)
}
