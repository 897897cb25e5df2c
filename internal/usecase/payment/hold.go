package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type CreateHoldInput struct {
	AmountMinorUnits int64
	PaymentMethodRef string
	ActorID          *uint
}

// CreateHold authorizes the service amount against the client's payment
// method and stores the hold. Only onboarding clients without a live hold
// qualify; a released hold is replaced.
func (o *Orchestrator) CreateHold(
	ctx context.Context,
	clientID uint,
	in CreateHoldInput,
) (*models.Client, error) {

	if in.AmountMinorUnits <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrPreconditionFailed)
	}
	if strings.TrimSpace(in.PaymentMethodRef) == "" {
		return nil, fmt.Errorf("%w: payment method required", domain.ErrPreconditionFailed)
	}

	c, err := o.repo.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := canHold(c); err != nil {
		return nil, err
	}

	gctx, cancel := o.gatewayCtx(ctx)
	holdID, err := o.gateway.Authorize(gctx, payment.AuthorizeRequest{
		ClientID:         c.ID,
		AmountMinorUnits: in.AmountMinorUnits,
		PaymentMethodRef: in.PaymentMethodRef,
		PayerEmail:       c.Email,
		IdempotencyKey:   holdKey(c),
	})
	cancel()
	if err := payment.Classify(err); err != nil {
		o.logger.WithError(err).WithField("client_id", clientID).Warn("hold authorization failed")
		return nil, err
	}

	now := o.now()
	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		if err := canHold(c); err != nil {
			return err
		}
		c.PaymentMethodRef = in.PaymentMethodRef
		c.PaymentHold = &models.PaymentHold{
			ClientID:         c.ID,
			HoldID:           holdID,
			AmountMinorUnits: in.AmountMinorUnits,
			Status:           string(payment.HoldAuthorized),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return nil
	})
	if err != nil {
		o.abandonHold(ctx, clientID, holdID, err)
		return nil, err
	}

	o.announce.Action(clientID, in.ActorID, "hold_authorized", map[string]any{
		"hold_id":            holdID,
		"amount_minor_units": in.AmountMinorUnits,
	})
	o.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"hold_id":   holdID,
	}).Info("payment hold authorized")
	return saved, nil
}

// holdKey is stable while an authorization attempt is unresolved, since a
// timeout changes nothing, and new once a previous hold was released.
func holdKey(c *models.Client) string {
	return fmt.Sprintf("client-%d-hold-v%d", c.ID, c.Version)
}

func canHold(c *models.Client) error {
	if h := c.PaymentHold; h != nil && payment.HoldStatus(h.Status) != payment.HoldReleased {
		return payment.ErrHoldAlreadyExists
	}
	if stage.Stage(c.Stage) != stage.Onboarding {
		return fmt.Errorf("%w: holds are created during onboarding, client is %s",
			domain.ErrPreconditionFailed, c.Stage)
	}
	return nil
}

// abandonHold releases an authorization that could not be recorded so the
// client's funds are not left reserved.
func (o *Orchestrator) abandonHold(ctx context.Context, clientID uint, holdID string, cause error) {
	log := o.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"hold_id":   holdID,
	}).WithError(cause)

	gctx, cancel := o.gatewayCtx(ctx)
	defer cancel()
	if err := o.gateway.Release(gctx, holdID); err != nil {
		log.WithField("release_error", err.Error()).Error("orphaned hold could not be released")
		return
	}
	if !errors.Is(cause, payment.ErrHoldAlreadyExists) {
		log.Warn("hold released after failed save")
	}
}
