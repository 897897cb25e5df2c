package models

import "time"

// Client is the onboarding aggregate root. Rows are never deleted; cancelled
// clients stay for audit.
type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100;index" json:"email"`
	Phone string `gorm:"size:20" json:"phone"`

	Stage          string    `gorm:"size:20;not null;index" json:"stage"`
	StageEnteredAt time.Time `gorm:"not null" json:"stage_entered_at"`

	// Version guards every update; see repository.Save.
	Version int `gorm:"not null;default:0" json:"version"`

	PaymentHold           *PaymentHold `gorm:"foreignKey:ClientID" json:"payment_hold,omitempty"`
	PaymentMethodRef      string       `gorm:"size:255" json:"-"`
	PaymentDueAt          *time.Time   `gorm:"index" json:"payment_due_at"`
	OnboardingCompletedAt *time.Time   `json:"onboarding_completed_at"`
	RetryAttempts         int          `gorm:"not null;default:0" json:"retry_attempts"`
	LastChargeID          string       `gorm:"size:64" json:"-"`

	FreeAnalysisToken *string `gorm:"size:64;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy, hold included.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	if c.PaymentHold != nil {
		h := *c.PaymentHold
		if c.PaymentHold.FinalizedAt != nil {
			f := *c.PaymentHold.FinalizedAt
			h.FinalizedAt = &f
		}
		out.PaymentHold = &h
	}
	if c.PaymentDueAt != nil {
		d := *c.PaymentDueAt
		out.PaymentDueAt = &d
	}
	if c.OnboardingCompletedAt != nil {
		o := *c.OnboardingCompletedAt
		out.OnboardingCompletedAt = &o
	}
	if c.FreeAnalysisToken != nil {
		tok := *c.FreeAnalysisToken
		out.FreeAnalysisToken = &tok
	}
	return &out
}
