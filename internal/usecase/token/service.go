// Package token issues the free analysis links. A token is bound to its
// client for good and grants access regardless of stage.
package token

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type Service struct {
	repo   domain.Repository
	logger logrus.FieldLogger
}

func NewService(
	repo domain.Repository,
	logger logrus.FieldLogger,
) *Service {
	return &Service{
		repo:   repo,
		logger: logger.WithField("component", "free_analysis_token"),
	}
}

// Issue returns the client's token, minting one the first time. A token
// collision surfaces as a version conflict and is retried with a fresh
// token.
func (s *Service) Issue(ctx context.Context, clientID uint) (string, error) {
	minted := false
	c, err := domain.Update(ctx, s.repo, clientID, func(c *models.Client) error {
		if c.FreeAnalysisToken != nil && *c.FreeAnalysisToken != "" {
			return domain.ErrNoChange
		}
		tok := newToken()
		c.FreeAnalysisToken = &tok
		minted = true
		return nil
	})
	if err != nil {
		return "", err
	}

	if minted {
		s.logger.WithField("client_id", clientID).Info("free analysis token issued")
	}
	return *c.FreeAnalysisToken, nil
}

// Resolve maps a token back to its client.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenNotFound
	}
	c, err := s.repo.FindByFreeAnalysisToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: unknown token", domain.ErrTokenNotFound)
	}
	return c, nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") +
		strings.ReplaceAll(uuid.NewString(), "-", "")
}
