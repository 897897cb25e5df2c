package client

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

var (
	ErrClientNotFound      = httperr.ErrBusiness(httperr.CodeClientNotFound)
	ErrConcurrencyConflict = httperr.ErrBusiness(httperr.CodeConcurrencyConflict)
	ErrTokenNotFound       = httperr.ErrBusiness(httperr.CodeTokenNotFound)
	ErrPreconditionFailed  = httperr.ErrBusiness(httperr.CodePreconditionFailed)
	ErrInvariantViolated   = httperr.ErrBusiness(httperr.CodeInvariantViolated)
)

type Repository interface {
	// -------- Aggregate --------
	Create(
		ctx context.Context,
		c *models.Client,
	) error

	Load(
		ctx context.Context,
		id uint,
	) (*models.Client, error)

	// Save persists c only if the stored version still equals
	// expectedVersion, bumping c.Version on success. A stale write fails
	// with ErrConcurrencyConflict and leaves storage untouched.
	Save(
		ctx context.Context,
		c *models.Client,
		expectedVersion int,
	) error

	FindByFreeAnalysisToken(
		ctx context.Context,
		token string,
	) (*models.Client, error)

	// -------- Scheduler scans --------
	ListPaymentDue(
		ctx context.Context,
		now time.Time,
	) ([]uint, error)

	ListStaleHolds(
		ctx context.Context,
		createdBefore time.Time,
	) ([]uint, error)

	ListPendingPayment(
		ctx context.Context,
	) ([]uint, error)
}

// ErrNoChange tells Update that the mutation found nothing to do; the
// loaded client is returned without a save.
var ErrNoChange = errors.New("no change")

const maxConflictRetries = 3

// Update loads id, applies fn and saves it under the loaded version. When
// the save loses a version race the client is reloaded and fn re-applied,
// so fn must be a pure mutation of c.
func Update(
	ctx context.Context,
	repo Repository,
	id uint,
	fn func(c *models.Client) error,
) (*models.Client, error) {

	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		c, err := repo.Load(ctx, id)
		if err != nil {
			return nil, err
		}

		expected := c.Version
		if err := fn(c); err != nil {
			if errors.Is(err, ErrNoChange) {
				return c, nil
			}
			return nil, err
		}

		err = repo.Save(ctx, c, expected)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
