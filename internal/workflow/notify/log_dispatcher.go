package notify

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

// LogDispatcher is the core's only concrete Dispatcher: it logs each intent
// via the teacher's logrus logger and records a Notification row for
// history, matching spec.md's framing that the real delivery mechanism
// (email/SMS) lives outside the core.
type LogDispatcher struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewLogDispatcher constructs a LogDispatcher.
func NewLogDispatcher(db *gorm.DB, log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{db: db, log: log}
}

// Dispatch logs the intent per recipient and records it for audit. Errors
// are logged, never returned to the caller's advance/bulk path — a failed
// notification does not fail the producing operation (spec.md §7).
func (d *LogDispatcher) Dispatch(intent Intent) error {
	for _, r := range intent.Recipients {
		d.log.WithFields(logrus.Fields{
			"notification_id": intent.NotificationID,
			"application_id":  intent.ApplicationID,
			"recipient_type":  r.Type,
			"recipient_email": r.Email,
			"new_status":      intent.NewStatus,
		}).Info("notification intent dispatched")

		rec := models.Notification{
			NotificationID: intent.NotificationID,
			ApplicationID:  intent.ApplicationID,
			RecipientType:  r.Type,
			RecipientEmail: r.Email,
			PreviousStatus: intent.PreviousStatus,
			NewStatus:      intent.NewStatus,
			DispatchedAt:   intent.PlannedAt,
		}
		if err := d.db.Create(&rec).Error; err != nil {
			d.log.WithError(err).Warn("failed to persist dispatched notification record")
		}
	}
	return nil
}
