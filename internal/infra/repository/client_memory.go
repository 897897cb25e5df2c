package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

// ClientMemoryRepository keeps clients in process memory with the same
// version semantics as the gorm repository. Used by tests and local runs
// without a database.
type ClientMemoryRepository struct {
	mu      sync.Mutex
	nextID  uint
	clients map[uint]*models.Client
	saves   int
}

func NewClientMemoryRepository() *ClientMemoryRepository {
	return &ClientMemoryRepository{
		nextID:  1,
		clients: make(map[uint]*models.Client),
	}
}

func (r *ClientMemoryRepository) Create(_ context.Context, c *models.Client) error {
	if err := domain.CheckInvariants(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.nextID
	r.nextID++
	c.Version = 1
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.StageEnteredAt
	}
	c.UpdatedAt = c.CreatedAt
	r.clients[c.ID] = c.Clone()
	return nil
}

func (r *ClientMemoryRepository) Load(_ context.Context, id uint) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrClientNotFound, id)
	}
	return c.Clone(), nil
}

func (r *ClientMemoryRepository) Save(_ context.Context, c *models.Client, expectedVersion int) error {
	if err := domain.CheckInvariants(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.clients[c.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrClientNotFound, c.ID)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: client %d is no longer at version %d", domain.ErrConcurrencyConflict, c.ID, expectedVersion)
	}
	if c.FreeAnalysisToken != nil {
		for id, other := range r.clients {
			if id != c.ID && other.FreeAnalysisToken != nil && *other.FreeAnalysisToken == *c.FreeAnalysisToken {
				return fmt.Errorf("%w: token already assigned", domain.ErrConcurrencyConflict)
			}
		}
	}

	c.Version = expectedVersion + 1
	if c.PaymentHold != nil {
		c.PaymentHold.ClientID = c.ID
	}
	r.clients[c.ID] = c.Clone()
	r.saves++
	return nil
}

func (r *ClientMemoryRepository) FindByFreeAnalysisToken(_ context.Context, token string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if c.FreeAnalysisToken != nil && *c.FreeAnalysisToken == token {
			return c.Clone(), nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r *ClientMemoryRepository) ListPaymentDue(_ context.Context, now time.Time) ([]uint, error) {
	return r.list(func(c *models.Client) bool {
		return c.Stage == string(stage.PendingPayment) &&
			c.PaymentDueAt != nil && !c.PaymentDueAt.After(now)
	}), nil
}

func (r *ClientMemoryRepository) ListStaleHolds(_ context.Context, createdBefore time.Time) ([]uint, error) {
	return r.list(func(c *models.Client) bool {
		s := stage.Stage(c.Stage)
		h := c.PaymentHold
		return (s == stage.Onboarding || s == stage.PendingPayment) &&
			c.OnboardingCompletedAt == nil &&
			h != nil && h.Status == string(payment.HoldAuthorized) &&
			h.CreatedAt.Before(createdBefore)
	}), nil
}

func (r *ClientMemoryRepository) ListPendingPayment(_ context.Context) ([]uint, error) {
	return r.list(func(c *models.Client) bool {
		return c.Stage == string(stage.PendingPayment) && c.PaymentDueAt != nil
	}), nil
}

// Saves counts successful Save calls.
func (r *ClientMemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *ClientMemoryRepository) list(match func(*models.Client) bool) []uint {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uint
	for id, c := range r.clients {
		if match(c) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

var _ domain.Repository = (*ClientMemoryRepository)(nil)
