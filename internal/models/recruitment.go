/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/recruitment.go

DESCRIPTION:
    Defines the job posting, candidate, and application models the workflow
    engine operates over. The pipeline position, SLA deadlines, and status
    history of an Application are NOT stored here — they live in
    workflow.go's WorkflowStage/StageTransition/StatusHistoryEntry, which are
    authoritative. Application.Status is a denormalized read-optimization
    that mirrors the open transition's stage name (see workflow.go).

DEVELOPER GUIDELINES:
    OK to modify: Add new fields as job/candidate data needs grow.
    DO NOT modify: Primary key structure, foreign key relationships, without
    a migration.
*/
package models

import (
	"time"

	"github.com/google/uuid"
)

// JobPostingStatus represents the lifecycle status of a job posting.
type JobPostingStatus string

const (
	JobPostingStatusDraft     JobPostingStatus = "draft"
	JobPostingStatusPublished JobPostingStatus = "published"
	JobPostingStatusPaused    JobPostingStatus = "paused"
	JobPostingStatusClosed    JobPostingStatus = "closed"
	JobPostingStatusFilled    JobPostingStatus = "filled"
)

// JobPosting represents a job listing that owns a pipeline of workflow
// stages. CreatedByID is the escalation assignee (§4.4), with
// HiringManagerID as the fallback when it is unset.
type JobPosting struct {
	BaseModel

	CompanyID uuid.UUID `gorm:"type:text;not null;index" json:"company_id"`
	Company   *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Status      JobPostingStatus `gorm:"size:50;default:'draft';not null" json:"status"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	ClosedAt    *time.Time       `json:"closed_at,omitempty"`

	HiringManagerID *uuid.UUID `gorm:"type:text;index" json:"hiring_manager_id,omitempty"`
	HiringManager   *User      `gorm:"foreignKey:HiringManagerID" json:"hiring_manager,omitempty"`

	// CreatedByID is the escalation assignee: the user who created the
	// posting.
	CreatedByID *uuid.UUID `gorm:"type:text;index" json:"created_by_id,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	Stages       []WorkflowStage `gorm:"foreignKey:JobPostingID" json:"stages,omitempty"`
	Applications []Application   `gorm:"foreignKey:JobPostingID" json:"applications,omitempty"`
}

// TableName specifies the table name for JobPosting.
func (JobPosting) TableName() string {
	return "job_postings"
}

// CandidateStatus represents the status of a candidate in the system.
type CandidateStatus string

const (
	CandidateStatusActive    CandidateStatus = "active"
	CandidateStatusHired     CandidateStatus = "hired"
	CandidateStatusRejected  CandidateStatus = "rejected"
	CandidateStatusWithdrawn CandidateStatus = "withdrawn"
)

// Candidate represents a person applying for jobs.
type Candidate struct {
	BaseModel

	CompanyID uuid.UUID `gorm:"type:text;not null;index" json:"company_id"`
	Company   *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:255;not null;index" json:"email"`
	Phone     string `gorm:"size:20" json:"phone,omitempty"`

	Status CandidateStatus `gorm:"size:50;default:'active'" json:"status"`

	Applications []Application `gorm:"foreignKey:CandidateID" json:"applications,omitempty"`
}

// TableName specifies the table name for Candidate.
func (Candidate) TableName() string {
	return "candidates"
}

// FullName returns the candidate's display name, used by the notification
// planner.
func (c *Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Application links a candidate to a job posting. Status mirrors the open
// WorkflowStage's canonicalized name; the open StageTransition, not Status,
// is the authoritative answer to "where is it?" (spec invariant, §9 Design
// Notes "Status denormalization").
type Application struct {
	BaseModel

	CompanyID    uuid.UUID   `gorm:"type:text;not null;index" json:"company_id"`
	CandidateID  uuid.UUID   `gorm:"type:text;not null;index" json:"candidate_id"`
	Candidate    *Candidate  `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	JobPostingID uuid.UUID   `gorm:"type:text;not null;index" json:"job_posting_id"`
	JobPosting   *JobPosting `gorm:"foreignKey:JobPostingID" json:"job_posting,omitempty"`

	// Status is a denormalized read-optimization; refreshed only inside the
	// same atomic write as the transition that changed it.
	Status string `gorm:"size:50;not null;default:'applied'" json:"status"`

	AppliedAt time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

// TableName specifies the table name for Application.
func (Application) TableName() string {
	return "applications"
}
