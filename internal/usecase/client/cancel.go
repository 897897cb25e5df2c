package client

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
)

type HoldReleaser interface {
	ReleaseHold(ctx context.Context, clientID uint, opts paymentuc.ReleaseOptions) (*models.Client, error)
}

type Cancel struct {
	repo     domain.Repository
	holds    HoldReleaser
	announce *announce.Announcer
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewCancel(
	repo domain.Repository,
	holds HoldReleaser,
	announcer *announce.Announcer,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *Cancel {
	return &Cancel{
		repo:     repo,
		holds:    holds,
		announce: announcer,
		clock:    clk,
		logger:   logger,
	}
}

// ByClient is clientCancels, available from payment_failed only.
func (uc *Cancel) ByClient(ctx context.Context, clientID uint) (*models.Client, error) {
	return uc.apply(ctx, clientID, stage.ClientCancels, nil, "")
}

// ByStaff is staffForceCancel. An authorized hold is released in the same
// step; captured funds are left alone.
func (uc *Cancel) ByStaff(
	ctx context.Context,
	clientID uint,
	actorID *uint,
	reason string,
) (*models.Client, error) {

	c, err := uc.repo.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if _, err := stage.Next(stage.Stage(c.Stage), stage.StaffForceCancel); err != nil {
		return nil, err
	}

	if c.PaymentHold != nil && payment.HoldStatus(c.PaymentHold.Status) == payment.HoldAuthorized {
		return uc.holds.ReleaseHold(ctx, clientID, paymentuc.ReleaseOptions{
			Then:    stage.StaffForceCancel,
			ActorID: actorID,
			Reason:  reason,
		})
	}
	return uc.apply(ctx, clientID, stage.StaffForceCancel, actorID, reason)
}

func (uc *Cancel) apply(
	ctx context.Context,
	clientID uint,
	ev stage.Event,
	actorID *uint,
	reason string,
) (*models.Client, error) {

	var tr domain.Transition
	saved, err := domain.Update(ctx, uc.repo, clientID, func(c *models.Client) error {
		t, err := domain.Apply(c, ev, uc.clock.Now())
		if err != nil {
			return err
		}
		c.PaymentDueAt = nil
		tr = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	var meta map[string]any
	if reason != "" {
		meta = map[string]any{"reason": reason}
	}
	uc.announce.Transition(ctx, clientID, tr, actorID, meta)
	uc.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"event":     ev,
	}).Info("client cancelled")
	return saved, nil
}
