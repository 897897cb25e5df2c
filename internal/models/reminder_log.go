package models

import "time"

// ReminderLog is a dedupe marker for scheduled notifications, keyed by
// client and calendar day.
type ReminderLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Key       string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
}
