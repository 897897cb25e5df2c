package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/infra/repository"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

var t0 = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

func TestApplyIllegalLeavesClientUnchanged(t *testing.T) {
	c := domain.New("Lia", "lia@example.com", "", t0)
	before := *c

	_, err := domain.Apply(c, stage.CroaSigned, t0.Add(time.Hour))
	require.ErrorIs(t, err, stage.ErrIllegalTransition)
	assert.Equal(t, before, *c)
	assert.Equal(t, string(stage.Lead), c.Stage)
}

func TestApplyRecordsTransition(t *testing.T) {
	c := domain.New("Lia", "lia@example.com", "", t0)
	later := t0.Add(time.Hour)

	tr, err := domain.Apply(c, stage.SendPortalInvite, later)
	require.NoError(t, err)
	assert.Equal(t, domain.Transition{From: stage.Lead, To: stage.Onboarding, Event: stage.SendPortalInvite, At: later}, tr)
	assert.Equal(t, later, c.StageEnteredAt)
}

func hold(status payment.HoldStatus) *models.PaymentHold {
	h := &models.PaymentHold{HoldID: "hold_1", AmountMinorUnits: 15000, Status: string(status), CreatedAt: t0}
	if status.Final() {
		f := t0
		h.FinalizedAt = &f
	}
	return h
}

func TestCheckInvariants(t *testing.T) {
	due := t0.AddDate(0, 0, 3)
	before := t0.Add(-time.Hour)

	cases := []struct {
		name string
		c    models.Client
		ok   bool
	}{
		{"lead", models.Client{Stage: "lead", StageEnteredAt: t0}, true},
		{"unknown stage", models.Client{Stage: "prospect"}, false},
		{"lead with hold", models.Client{Stage: "lead", PaymentHold: hold(payment.HoldAuthorized)}, false},
		{"onboarding without hold", models.Client{Stage: "onboarding"}, true},
		{"active without hold", models.Client{Stage: "active"}, false},
		{"pending with due", models.Client{Stage: "pending_payment", StageEnteredAt: t0, PaymentHold: hold(payment.HoldAuthorized), PaymentDueAt: &due}, true},
		{"due before stage entry", models.Client{Stage: "pending_payment", StageEnteredAt: t0, PaymentHold: hold(payment.HoldAuthorized), PaymentDueAt: &before}, false},
		{"due with captured hold", models.Client{Stage: "pending_payment", StageEnteredAt: t0, PaymentHold: hold(payment.HoldCaptured), PaymentDueAt: &due}, false},
		{"due outside pending", models.Client{Stage: "active", StageEnteredAt: t0, PaymentHold: hold(payment.HoldAuthorized), PaymentDueAt: &due}, false},
		{"final hold without finalized_at", models.Client{Stage: "active", PaymentHold: &models.PaymentHold{HoldID: "h", AmountMinorUnits: 1, Status: "captured"}}, false},
		{"bad hold status", models.Client{Stage: "active", PaymentHold: &models.PaymentHold{HoldID: "h", AmountMinorUnits: 1, Status: "pending"}}, false},
		{"zero amount", models.Client{Stage: "onboarding", PaymentHold: &models.PaymentHold{HoldID: "h", Status: "authorized"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := domain.CheckInvariants(&tc.c)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvariantViolated)
			}
		})
	}
}

// racingRepo bumps the stored version behind the caller's back on the
// first n loads, so the following save loses.
type racingRepo struct {
	*repository.ClientMemoryRepository
	races int
}

func (r *racingRepo) Load(ctx context.Context, id uint) (*models.Client, error) {
	c, err := r.ClientMemoryRepository.Load(ctx, id)
	if err != nil || r.races == 0 {
		return c, err
	}
	r.races--
	other := c.Clone()
	other.Phone = "+5511000000000"
	if err := r.ClientMemoryRepository.Save(ctx, other, other.Version); err != nil {
		return nil, err
	}
	return c, nil
}

func newRacing(t *testing.T, races int) (*racingRepo, uint) {
	t.Helper()
	repo := &racingRepo{ClientMemoryRepository: repository.NewClientMemoryRepository()}
	c := domain.New("Lia", "lia@example.com", "", t0)
	require.NoError(t, repo.Create(context.Background(), c))
	repo.races = races
	return repo, c.ID
}

func invite(c *models.Client) error {
	_, err := domain.Apply(c, stage.SendPortalInvite, t0)
	return err
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	repo, id := newRacing(t, 2)

	c, err := domain.Update(context.Background(), repo, id, invite)
	require.NoError(t, err)
	assert.Equal(t, string(stage.Onboarding), c.Stage)
	assert.Equal(t, "+5511000000000", c.Phone)
}

func TestUpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo, id := newRacing(t, 5)

	_, err := domain.Update(context.Background(), repo, id, invite)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestUpdateNoChangeSkipsSave(t *testing.T) {
	repo, id := newRacing(t, 0)
	saves := repo.Saves()

	c, err := domain.Update(context.Background(), repo, id, func(*models.Client) error { return domain.ErrNoChange })
	require.NoError(t, err)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, saves, repo.Saves())
}

func TestUpdatePropagatesMutationError(t *testing.T) {
	repo, id := newRacing(t, 0)
	boom := errors.New("boom")

	_, err := domain.Update(context.Background(), repo, id, func(*models.Client) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStaleSaveIsRejected(t *testing.T) {
	repo := repository.NewClientMemoryRepository()
	ctx := context.Background()
	c := domain.New("Lia", "lia@example.com", "", t0)
	require.NoError(t, repo.Create(ctx, c))

	a, err := repo.Load(ctx, c.ID)
	require.NoError(t, err)
	b, err := repo.Load(ctx, c.ID)
	require.NoError(t, err)

	require.NoError(t, invite(a))
	require.NoError(t, repo.Save(ctx, a, a.Version))

	b.Name = "Other"
	err = repo.Save(ctx, b, b.Version)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	stored, err := repo.Load(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lia", stored.Name)
	assert.Equal(t, string(stage.Onboarding), stored.Stage)
}
