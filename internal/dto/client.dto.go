package dto

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/client-portal/internal/domain/access"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type HoldDTO struct {
	HoldID           string     `json:"hold_id"`
	AmountMinorUnits int64      `json:"amount_minor_units"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
}

type ClientDTO struct {
	ID                    uint       `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	Stage                 string     `json:"stage"`
	StageEnteredAt        time.Time  `json:"stage_entered_at"`
	Version               int        `json:"version"`
	PaymentHold           *HoldDTO   `json:"payment_hold,omitempty"`
	PaymentDueAt          *time.Time `json:"payment_due_at,omitempty"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
	RetryAttempts         int        `json:"retry_attempts"`
	CreatedAt             time.Time  `json:"created_at"`
}

func Client(c *models.Client) ClientDTO {
	out := ClientDTO{
		ID:                    c.ID,
		Name:                  c.Name,
		Email:                 c.Email,
		Phone:                 c.Phone,
		Stage:                 c.Stage,
		StageEnteredAt:        c.StageEnteredAt,
		Version:               c.Version,
		PaymentDueAt:          c.PaymentDueAt,
		OnboardingCompletedAt: c.OnboardingCompletedAt,
		RetryAttempts:         c.RetryAttempts,
		CreatedAt:             c.CreatedAt,
	}
	if h := c.PaymentHold; h != nil {
		out.PaymentHold = &HoldDTO{
			HoldID:           h.HoldID,
			AmountMinorUnits: h.AmountMinorUnits,
			Status:           h.Status,
			CreatedAt:        h.CreatedAt,
			FinalizedAt:      h.FinalizedAt,
		}
	}
	return out
}

// PortalClientDTO is what a client sees about themselves; it carries no
// internal references.
type PortalClientDTO struct {
	Name         string     `json:"name"`
	Stage        string     `json:"stage"`
	PaymentDueAt *time.Time `json:"payment_due_at,omitempty"`
	Resources    []string   `json:"resources"`
}

func PortalClient(c *models.Client) PortalClientDTO {
	out := PortalClientDTO{
		Name:         c.Name,
		Stage:        c.Stage,
		PaymentDueAt: c.PaymentDueAt,
		Resources:    []string{},
	}
	if allowed, err := access.Allowed(stage.Stage(c.Stage)); err == nil {
		for _, r := range allowed {
			out.Resources = append(out.Resources, string(r))
		}
	}
	return out
}

// FreeAnalysisDTO is the teaser page payload.
type FreeAnalysisDTO struct {
	FirstName string `json:"first_name"`
	Stage     string `json:"stage"`
	CanStart  bool   `json:"can_start"`
}

func FreeAnalysis(c *models.Client) FreeAnalysisDTO {
	first := c.Name
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	return FreeAnalysisDTO{
		FirstName: first,
		Stage:     c.Stage,
		CanStart:  stage.CanApply(stage.Stage(c.Stage), stage.ClientRequestsStart),
	}
}
