package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

// StartCancellationPeriod records the signed CROA. Onboarding is complete
// once the required documents are on file and the hold is authorized; the
// client moves to pending_payment with the due date set the configured
// number of business days out.
func (o *Orchestrator) StartCancellationPeriod(
	ctx context.Context,
	clientID uint,
	actorID *uint,
) (*models.Client, error) {

	c, err := o.repo.Load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if _, err := stage.Next(stage.Stage(c.Stage), stage.CroaSigned); err != nil {
		return nil, err
	}

	if o.docs != nil && len(o.cfg.RequiredDocuments) > 0 {
		missing, err := o.docs.Missing(ctx, clientID, o.cfg.RequiredDocuments)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: missing documents %s",
				domain.ErrPreconditionFailed, strings.Join(missing, ", "))
		}
	}

	var tr domain.Transition
	now := o.now()
	due := clock.AddBusinessDays(now, o.cfg.CancellationPeriodBusinessDays)

	saved, err := domain.Update(ctx, o.repo, clientID, func(c *models.Client) error {
		if c.PaymentHold == nil || payment.HoldStatus(c.PaymentHold.Status) != payment.HoldAuthorized {
			return fmt.Errorf("%w: cancellation period needs an authorized hold", payment.ErrNoActiveHold)
		}
		t, err := domain.Apply(c, stage.CroaSigned, now)
		if err != nil {
			return err
		}
		c.PaymentDueAt = ptrTime(due)
		c.OnboardingCompletedAt = ptrTime(now)
		tr = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.announce.Transition(ctx, clientID, tr, actorID, map[string]any{
		"payment_due_at": due,
	})
	return saved, nil
}
