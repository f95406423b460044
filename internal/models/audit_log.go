/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/audit_log.go

DESCRIPTION:
    Defines the AuditLog model backing the core's AuditLogger external
    collaborator (spec.md §6: "log(event) - fire-and-forget"). Every
    state-changing workflow operation served by the HTTP WorkflowHandler
    (advance, escalate, resolve, bulk submit/cancel/cleanup) writes one entry
    here, best-effort, via internal/workflow/audit.Logger. Escalations raised
    by the SLAMonitor's own scan and the first-stage advance inside
    ApplicationService.Create write no entry.

DEVELOPER GUIDELINES:
    OK to modify: Add new event types as new operations are added.
    DO NOT modify: Core structure without considering existing logs.
*/
package models

import (
	"github.com/google/uuid"
)

// AuditLogEventType represents the kind of workflow event being recorded.
type AuditLogEventType string

const (
	EventAdvance         AuditLogEventType = "advance"
	EventEscalate        AuditLogEventType = "escalate"
	EventResolve         AuditLogEventType = "resolve"
	EventBulkSubmit      AuditLogEventType = "bulk_submit"
	EventBulkCancel      AuditLogEventType = "bulk_cancel"
	EventBulkCleanup     AuditLogEventType = "bulk_cleanup"
	EventStagesCreated   AuditLogEventType = "stages_created"
)

// AuditLog represents an audit log entry for a workflow operation.
type AuditLog struct {
	BaseModel
	EventType     AuditLogEventType `gorm:"type:text;not null;index" json:"event_type"`
	UserID        *uuid.UUID        `gorm:"type:text;index" json:"user_id,omitempty"`
	ApplicationID *uuid.UUID        `gorm:"type:text;index" json:"application_id,omitempty"`
	Success       bool              `gorm:"default:false" json:"success"`
	FailureReason *string           `gorm:"type:text" json:"failure_reason,omitempty"`
	Metadata      *string           `gorm:"type:text" json:"metadata,omitempty"` // JSON metadata for additional detail

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
