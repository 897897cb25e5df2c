package models

import "time"

// PaymentHold is the authorization reserved for a client. One per client;
// HoldID is the gateway reference and the capture/release idempotency key.
type PaymentHold struct {
	ID       uint `gorm:"primaryKey" json:"-"`
	ClientID uint `gorm:"uniqueIndex;not null" json:"-"`

	HoldID           string `gorm:"size:64;uniqueIndex;not null" json:"hold_id"`
	AmountMinorUnits int64  `gorm:"not null" json:"amount_minor_units"`
	Status           string `gorm:"size:20;not null" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
