/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/workflow.go

DESCRIPTION:
    Defines the authoritative pipeline-position models the engine operates
    over: WorkflowStage (a job's ordered pipeline definition), StageTransition
    (the interval an application spent in a stage), Escalation (an SLA
    breach assigned to a responsible user), and StatusHistoryEntry (the
    immutable audit trail of status changes). These are the "Data model"
    entities; Application in recruitment.go only carries a denormalized
    mirror of the open transition's stage.

DEVELOPER GUIDELINES:
    OK to modify: Add new fields as pipeline features grow.
    DO NOT modify: EnteredAt/SLADeadline immutability, the single-open-
    transition invariant — these are enforced by internal/workflow/store.
*/
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkflowStage is a named position in a job's ordered pipeline.
// OrderIndex values per JobPostingID form a prefix of the positive integers
// without duplicates (spec invariant 4). Inactive stages remain referenced
// by historical transitions but are invisible to advancement.
type WorkflowStage struct {
	BaseModel
	JobPostingID uuid.UUID `gorm:"type:text;not null;index:idx_stage_job_order" json:"job_posting_id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	OrderIndex   int       `gorm:"not null;index:idx_stage_job_order" json:"order_index"`
	SLAHours     int       `gorm:"not null" json:"sla_hours"`
	Active       bool      `gorm:"default:true" json:"active"`

	// AutoAdvanceRules is an opaque structured document interpreted by an
	// external rules evaluator (§9 Design Notes); the engine never evaluates
	// it.
	AutoAdvanceRules datatypes.JSON `gorm:"type:jsonb" json:"auto_advance_rules,omitempty"`

	JobPosting *JobPosting `gorm:"foreignKey:JobPostingID" json:"-"`
}

// TableName specifies the table name for GORM.
func (WorkflowStage) TableName() string {
	return "workflow_stages"
}

// CanonicalStatus canonicalizes a stage name into an application's Status
// string: lowercase, spaces replaced with underscores (spec.md §4.2 step 5).
func (s *WorkflowStage) CanonicalStatus() string {
	out := make([]rune, 0, len(s.Name))
	for _, r := range s.Name {
		if r == ' ' {
			out = append(out, '_')
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}

// StageTransition is the interval an application spent, or is spending, in
// a stage. ExitedAt is nil iff this is the application's open transition;
// at most one transition per application may be open (spec invariant 1).
type StageTransition struct {
	BaseModel
	ApplicationID uuid.UUID  `gorm:"type:text;not null;index:idx_transition_app_exit" json:"application_id"`
	StageID       uuid.UUID  `gorm:"type:text;not null;index" json:"stage_id"`
	EnteredAt     time.Time  `gorm:"not null" json:"entered_at"`
	ExitedAt      *time.Time `gorm:"index:idx_transition_app_exit" json:"exited_at,omitempty"`
	SLADeadline   time.Time  `gorm:"not null;index:idx_transition_sla" json:"sla_deadline"`

	IsEscalated       bool       `gorm:"default:false;index:idx_transition_sla" json:"is_escalated"`
	EscalatedAt       *time.Time `json:"escalated_at,omitempty"`
	EscalatedToUserID *uuid.UUID `gorm:"type:text" json:"escalated_to_user_id,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Application *Application   `gorm:"foreignKey:ApplicationID" json:"-"`
	Stage       *WorkflowStage `gorm:"foreignKey:StageID" json:"stage,omitempty"`
}

// TableName specifies the table name for GORM.
func (StageTransition) TableName() string {
	return "stage_transitions"
}

// DurationHours returns the time spent in this transition, or nil while it
// remains open (spec.md §4.2 derived operations).
func (t *StageTransition) DurationHours() *float64 {
	if t.ExitedAt == nil {
		return nil
	}
	h := t.ExitedAt.Sub(t.EnteredAt).Hours()
	return &h
}

// EscalationSeverity classifies an escalation by overdue duration at
// creation time (spec.md §4.3).
type EscalationSeverity string

const (
	SeverityWarning  EscalationSeverity = "warning"
	SeverityCritical EscalationSeverity = "critical"
	SeverityOverdue  EscalationSeverity = "overdue"
)

// Escalation records that a transition breached its SLA. Severity and
// reason are never mutated after creation; resolution mutates only the
// resolved fields (spec invariant 6).
type Escalation struct {
	BaseModel
	ApplicationID     uuid.UUID          `gorm:"type:text;not null;index" json:"application_id"`
	StageTransitionID uuid.UUID          `gorm:"type:text;not null;index" json:"stage_transition_id"`
	Severity          EscalationSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	AssigneeID        uuid.UUID          `gorm:"type:text;not null;index:idx_escalation_assignee_resolved" json:"assignee_id"`
	Reason            string             `gorm:"type:text" json:"reason"`
	Resolved          bool               `gorm:"default:false;index:idx_escalation_assignee_resolved" json:"resolved"`
	ResolvedAt        *time.Time         `json:"resolved_at,omitempty"`
	ResolvedBy        *uuid.UUID         `gorm:"type:text" json:"resolved_by,omitempty"`

	Application     *Application     `gorm:"foreignKey:ApplicationID" json:"-"`
	StageTransition *StageTransition `gorm:"foreignKey:StageTransitionID" json:"-"`
	Assignee        *User            `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// TableName specifies the table name for GORM.
func (Escalation) TableName() string {
	return "sla_escalations"
}

// BeforeCreate generates a UUID for the ID field if it's not already set.
func (e *Escalation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// StatusHistoryEntry is the immutable audit record of an application's
// status change (spec invariant 5: every state-changing operation produces
// exactly one).
type StatusHistoryEntry struct {
	BaseModel
	ApplicationID  uuid.UUID `gorm:"type:text;not null;index:idx_history_app_created" json:"application_id"`
	PreviousStatus string    `gorm:"type:varchar(50)" json:"previous_status,omitempty"`
	NewStatus      string    `gorm:"type:varchar(50);not null" json:"new_status"`
	ChangedByID    uuid.UUID `gorm:"type:text;not null" json:"changed_by_id"`
	ChangeReason   string    `gorm:"type:text" json:"change_reason,omitempty"`

	Application *Application `gorm:"foreignKey:ApplicationID" json:"-"`
	ChangedBy   *User        `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}

// TableName specifies the table name for GORM.
func (StatusHistoryEntry) TableName() string {
	return "application_status_history"
}
