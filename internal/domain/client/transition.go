package client

import (
	"time"

	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

type Transition struct {
	From  stage.Stage
	To    stage.Stage
	Event stage.Event
	At    time.Time
}

// ===============================
// Domain Actions
// ===============================

// Apply moves c along ev. On error c is left exactly as it was.
func Apply(c *models.Client, ev stage.Event, now time.Time) (Transition, error) {
	from := stage.Stage(c.Stage)
	to, err := stage.Next(from, ev)
	if err != nil {
		return Transition{}, err
	}

	c.Stage = string(to)
	c.StageEnteredAt = now
	return Transition{From: from, To: to, Event: ev, At: now}, nil
}

// New returns a fresh lead.
func New(name, email, phone string, now time.Time) *models.Client {
	return &models.Client{
		Name:           name,
		Email:          email,
		Phone:          phone,
		Stage:          string(stage.Lead),
		StageEnteredAt: now,
	}
}
