package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/client-portal/internal/clock"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

// ReminderGormDedupe stores dedupe keys in reminder_logs. The unique index
// on key makes the insert the claim.
type ReminderGormDedupe struct {
	db  *gorm.DB
	clk clock.Clock
}

func NewReminderGormDedupe(db *gorm.DB, clk clock.Clock) *ReminderGormDedupe {
	return &ReminderGormDedupe{db: db, clk: clk}
}

func (r *ReminderGormDedupe) MarkOnce(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (bool, error) {

	now := r.clk.Now()

	if err := r.db.WithContext(ctx).
		Where("key = ? AND expires_at <= ?", key, now).
		Delete(&models.ReminderLog{}).Error; err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ReminderLog{
			Key:       key,
			ExpiresAt: now.Add(ttl),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
