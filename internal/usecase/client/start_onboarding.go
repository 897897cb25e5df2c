package client

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/notification"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
	"github.com/BruksfildServices01/client-portal/internal/validators"
)

type PortalIssuer interface {
	Portal(clientID uint) (string, time.Time, error)
}

// ContactVerifier decides whether a client can be reached.
type ContactVerifier func(email, phone string) bool

type OnboardingResult struct {
	Client      *models.Client
	PortalToken string
	ExpiresAt   time.Time
}

// StartOnboarding moves a lead into onboarding, either on a staff invite or
// on the client's own request from the free analysis page. Both paths
// require reachable contact details and hand out a portal token.
type StartOnboarding struct {
	repo     domain.Repository
	issuer   PortalIssuer
	verify   ContactVerifier
	announce *announce.Announcer
	clock    clock.Clock
	logger   logrus.FieldLogger
}

func NewStartOnboarding(
	repo domain.Repository,
	issuer PortalIssuer,
	verify ContactVerifier,
	announcer *announce.Announcer,
	clk clock.Clock,
	logger logrus.FieldLogger,
) *StartOnboarding {
	if verify == nil {
		verify = validators.HasVerifiableContact
	}
	return &StartOnboarding{
		repo:     repo,
		issuer:   issuer,
		verify:   verify,
		announce: announcer,
		clock:    clk,
		logger:   logger,
	}
}

// Invite is the staff path (sendPortalInvite).
func (uc *StartOnboarding) Invite(
	ctx context.Context,
	clientID uint,
	actorID *uint,
) (OnboardingResult, error) {
	return uc.start(ctx, clientID, stage.SendPortalInvite, actorID)
}

// RequestStart is the client path (clientRequestsStart), identified by the
// free analysis token.
func (uc *StartOnboarding) RequestStart(
	ctx context.Context,
	token string,
) (OnboardingResult, error) {

	c, err := uc.repo.FindByFreeAnalysisToken(ctx, token)
	if err != nil {
		return OnboardingResult{}, err
	}
	return uc.start(ctx, c.ID, stage.ClientRequestsStart, nil)
}

func (uc *StartOnboarding) start(
	ctx context.Context,
	clientID uint,
	ev stage.Event,
	actorID *uint,
) (OnboardingResult, error) {

	tok, exp, err := uc.issuer.Portal(clientID)
	if err != nil {
		return OnboardingResult{}, fmt.Errorf("mint portal token: %w", err)
	}

	now := uc.clock.Now()
	var tr domain.Transition
	saved, err := domain.Update(ctx, uc.repo, clientID, func(c *models.Client) error {
		if _, err := stage.Next(stage.Stage(c.Stage), ev); err != nil {
			return err
		}
		if !uc.verify(c.Email, c.Phone) {
			return fmt.Errorf("%w: client has no verifiable contact", domain.ErrPreconditionFailed)
		}
		t, err := domain.Apply(c, ev, now)
		if err != nil {
			return err
		}
		tr = t
		return nil
	})
	if err != nil {
		return OnboardingResult{}, err
	}

	uc.announce.Transition(ctx, clientID, tr, actorID, nil)
	uc.announce.Notify(ctx, notification.EventPortalInvite, clientID, now, map[string]any{
		"portal_token": tok,
		"expires_at":   exp,
		"email":        saved.Email,
		"phone":        saved.Phone,
	})
	uc.logger.WithFields(logrus.Fields{
		"client_id": clientID,
		"event":     ev,
	}).Info("onboarding started")

	return OnboardingResult{Client: saved, PortalToken: tok, ExpiresAt: exp}, nil
}
