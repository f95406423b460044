// Package audit implements the AuditLogger: a fire-and-forget recorder of
// workflow events, adapted from the teacher's AuditService.Log and
// AuditLog model, generalized from login/session events to workflow events
// (spec.md §6).
package audit

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

// Logger records workflow events. Errors are logged, never propagated — a
// failed audit write does not fail the producing operation.
type Logger struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewLogger constructs an audit Logger.
func NewLogger(db *gorm.DB, log *logrus.Logger) *Logger {
	return &Logger{db: db, log: log}
}

// Entry is the input to Log: one workflow event.
type Entry struct {
	EventType     models.AuditLogEventType
	UserID        *uuid.UUID
	ApplicationID *uuid.UUID
	Success       bool
	FailureReason *string
	Metadata      map[string]interface{}
}

// Log persists one audit entry. Never returns an error to the caller; any
// write failure is logged at Warn level.
func (l *Logger) Log(e Entry) {
	record := &models.AuditLog{
		EventType:     e.EventType,
		UserID:        e.UserID,
		ApplicationID: e.ApplicationID,
		Success:       e.Success,
		FailureReason: e.FailureReason,
	}

	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			s := string(raw)
			record.Metadata = &s
		}
	}

	if err := l.db.Create(record).Error; err != nil {
		l.log.WithError(err).WithField("event_type", e.EventType).Warn("failed to persist audit log entry")
	}
}
