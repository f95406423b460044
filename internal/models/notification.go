/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/notification.go

DESCRIPTION:
    Defines the persisted record of a dispatched notification intent. The
    workflow engine's NotificationPlanner (internal/workflow/notify) computes
    intents in-memory as a pure function; this model is what the core's
    LogDispatcher implementation writes after a best-effort dispatch, so a
    company's notification history survives process restarts. Intent
    computation itself never touches the database.

DEVELOPER GUIDELINES:
    OK to modify: Add new fields for richer dispatch auditing.
    DO NOT modify: The (notification_id, recipient_type) unique index that
    keeps a redelivered intent from writing duplicate rows.
*/
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRecipientType categorizes who a dispatched notification went to.
type NotificationRecipientType string

const (
	RecipientCandidate     NotificationRecipientType = "candidate"
	RecipientHiringManager NotificationRecipientType = "hiring_manager"
)

// Notification represents a dispatched notification intent, recorded after
// the fact by a NotificationDispatcher implementation.
type Notification struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key" json:"id"`
	NotificationID string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_notification_recipient" json:"notification_id"`
	ApplicationID  uuid.UUID                `gorm:"type:uuid;not null;index" json:"application_id"`
	RecipientType  NotificationRecipientType `gorm:"type:varchar(50);not null;uniqueIndex:idx_notification_recipient" json:"recipient_type"`
	RecipientEmail string                   `gorm:"type:varchar(255);not null" json:"recipient_email"`
	PreviousStatus string                   `gorm:"type:varchar(50)" json:"previous_status,omitempty"`
	NewStatus      string                   `gorm:"type:varchar(50);not null" json:"new_status"`
	DispatchedAt   time.Time                `json:"dispatched_at"`

	// Relationships
	Application *Application `gorm:"foreignKey:ApplicationID" json:"-"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate generates a UUID for new dispatched-notification records.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
