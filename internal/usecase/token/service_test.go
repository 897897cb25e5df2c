package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/infra/repository"
	"github.com/BruksfildServices01/client-portal/internal/models"
	"github.com/BruksfildServices01/client-portal/internal/usecase/token"
)

func setup(t *testing.T) (*token.Service, *repository.ClientMemoryRepository, uint) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	repo := repository.NewClientMemoryRepository()

	c := domain.New("Caio", "caio@example.com", "", time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(context.Background(), c))
	return token.NewService(repo, logger), repo, c.ID
}

func TestIssueReturnsSameTokenTwice(t *testing.T) {
	svc, repo, id := setup(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, id)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	second, err := svc.Issue(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.Saves())
}

func TestResolve(t *testing.T) {
	svc, _, id := setup(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	c, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)

	_, err = svc.Resolve(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, err = svc.Resolve(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestTokenSurvivesStageChanges(t *testing.T) {
	svc, repo, id := setup(t)
	ctx := context.Background()

	tok, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	_, err = domain.Update(ctx, repo, id, func(c *models.Client) error {
		_, err := domain.Apply(c, stage.StaffForceCancel, time.Now())
		return err
	})
	require.NoError(t, err)

	c, err := svc.Resolve(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, string(stage.Cancelled), c.Stage)
}

func TestIssueUnknownClient(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Issue(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}
