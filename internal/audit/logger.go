package audit

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/client-portal/internal/models"
)

// Recorder persists a single audit event.
type Recorder interface {
	Record(ev Event) error
}

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(ev Event) error {

	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	row := models.AuditLog{
		ClientID:  ev.ClientID,
		ActorID:   ev.ActorID,
		Action:    ev.Action,
		FromStage: ev.FromStage,
		ToStage:   ev.ToStage,
		Metadata:  metaJSON,
	}

	return l.db.Create(&row).Error
}
