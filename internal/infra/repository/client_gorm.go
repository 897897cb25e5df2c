package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type ClientGormRepository struct {
	db  *gorm.DB
	clk clock.Clock
}

func NewClientGormRepository(db *gorm.DB, clk clock.Clock) *ClientGormRepository {
	return &ClientGormRepository{db: db, clk: clk}
}

// --------------------------------------------------
// Aggregate
// --------------------------------------------------

func (r *ClientGormRepository) Create(
	ctx context.Context,
	c *models.Client,
) error {

	if err := domain.CheckInvariants(c); err != nil {
		return err
	}

	c.Version = 1
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return err
	}
	return nil
}

func (r *ClientGormRepository) Load(
	ctx context.Context,
	id uint,
) (*models.Client, error) {

	var c models.Client
	err := r.db.WithContext(ctx).
		Preload("PaymentHold").
		First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrClientNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientGormRepository) Save(
	ctx context.Context,
	c *models.Client,
	expectedVersion int,
) error {

	if err := domain.CheckInvariants(c); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		res := tx.Model(&models.Client{}).
			Where("id = ? AND version = ?", c.ID, expectedVersion).
			Updates(clientColumns(c, expectedVersion+1, r.clk.Now()))
		if res.Error != nil {
			if httperr.IsUniqueViolation(res.Error) {
				return fmt.Errorf("%w: unique constraint on client %d", domain.ErrConcurrencyConflict, c.ID)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: client %d is no longer at version %d", domain.ErrConcurrencyConflict, c.ID, expectedVersion)
		}

		if c.PaymentHold == nil {
			return nil
		}

		c.PaymentHold.ClientID = c.ID
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"hold_id", "amount_minor_units", "status", "created_at", "finalized_at", "updated_at",
			}),
		}).Create(c.PaymentHold).Error
	})
	if err != nil {
		return err
	}

	c.Version = expectedVersion + 1
	return nil
}

// clientColumns lists every mutable column so zero values and NULLs are
// written too.
func clientColumns(c *models.Client, version int, now time.Time) map[string]any {
	return map[string]any{
		"name":                    c.Name,
		"email":                   c.Email,
		"phone":                   c.Phone,
		"stage":                   c.Stage,
		"stage_entered_at":        c.StageEnteredAt,
		"version":                 version,
		"payment_method_ref":      c.PaymentMethodRef,
		"payment_due_at":          c.PaymentDueAt,
		"onboarding_completed_at": c.OnboardingCompletedAt,
		"retry_attempts":          c.RetryAttempts,
		"last_charge_id":          c.LastChargeID,
		"free_analysis_token":     c.FreeAnalysisToken,
		"updated_at":              now,
	}
}

func (r *ClientGormRepository) FindByFreeAnalysisToken(
	ctx context.Context,
	token string,
) (*models.Client, error) {

	var c models.Client
	err := r.db.WithContext(ctx).
		Preload("PaymentHold").
		Where("free_analysis_token = ?", token).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// --------------------------------------------------
// Scheduler scans
// --------------------------------------------------

func (r *ClientGormRepository) ListPaymentDue(
	ctx context.Context,
	now time.Time,
) ([]uint, error) {

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("stage = ? AND payment_due_at <= ?", string(stage.PendingPayment), now).
		Order("payment_due_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ClientGormRepository) ListStaleHolds(
	ctx context.Context,
	createdBefore time.Time,
) ([]uint, error) {

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Joins("JOIN payment_holds ON payment_holds.client_id = clients.id").
		Where(
			"clients.stage IN ? AND clients.onboarding_completed_at IS NULL AND payment_holds.status = ? AND payment_holds.created_at < ?",
			[]string{string(stage.Onboarding), string(stage.PendingPayment)},
			string(payment.HoldAuthorized),
			createdBefore,
		).
		Order("payment_holds.created_at ASC").
		Pluck("clients.id", &ids).Error
	return ids, err
}

func (r *ClientGormRepository) ListPendingPayment(
	ctx context.Context,
) ([]uint, error) {

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("stage = ? AND payment_due_at IS NOT NULL", string(stage.PendingPayment)).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Compile-time check
var _ domain.Repository = (*ClientGormRepository)(nil)
