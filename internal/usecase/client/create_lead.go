// Package client holds the staff and portal actions that move a client
// through the lifecycle outside the payment flow.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/models"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
)

type CreateLeadInput struct {
	Name    string
	Email   string
	Phone   string
	ActorID *uint
}

type CreateLead struct {
	repo     domain.Repository
	announce *announce.Announcer
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewCreateLead(
	repo domain.Repository,
	announcer *announce.Announcer,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *CreateLead {
	return &CreateLead{
		repo:     repo,
		announce: announcer,
		clock:    clk,
		logger:   logger,
	}
}

func (uc *CreateLead) Execute(
	ctx context.Context,
	in CreateLeadInput,
) (*models.Client, error) {

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrPreconditionFailed)
	}

	c := domain.New(
		name,
		strings.ToLower(strings.TrimSpace(in.Email)),
		strings.TrimSpace(in.Phone),
		uc.clock.Now(),
	)
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.announce.Action(c.ID, in.ActorID, "client_created", map[string]any{"stage": c.Stage})
	uc.logger.WithField("client_id", c.ID).Info("lead created")
	return c, nil
}
