// Package store defines the abstract transactional persistence contract the
// workflow engine depends on (spec.md §4.1), plus a GORM-backed
// implementation grounded on the teacher's services' transaction style.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"workflowengine/internal/models"
)

// AdvanceParams carries the inputs WorkflowEngine.Advance needs the Store to
// apply atomically: close the prior open transition (if different stage),
// open a new one, update the denormalized Application.Status, and append a
// StatusHistoryEntry — all in one write (spec.md §4.2 step 1-6).
type AdvanceParams struct {
	ApplicationID uuid.UUID
	TargetStage   *models.WorkflowStage
	ActorID       uuid.UUID
	Notes         string
	Now           time.Time
}

// Store is the abstract persistence contract. Implementations must make the
// Advance/Escalate/ResolveEscalation compound writes atomic: "no
// partially-applied transition" (spec.md §4.1).
type Store interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error)
	GetStage(ctx context.Context, id uuid.UUID) (*models.WorkflowStage, error)
	ListStagesForJob(ctx context.Context, jobPostingID uuid.UUID, includeInactive bool) ([]models.WorkflowStage, error)
	CreateStages(ctx context.Context, stages []models.WorkflowStage) error
	GetTransition(ctx context.Context, id uuid.UUID) (*models.StageTransition, error)

	OpenTransitionOf(ctx context.Context, applicationID uuid.UUID) (*models.StageTransition, error)
	ListTransitionsForApplication(ctx context.Context, applicationID uuid.UUID) ([]models.StageTransition, error)
	ListOpenOverdue(ctx context.Context, now time.Time) ([]models.StageTransition, error)
	ListApplicationsInStage(ctx context.Context, jobPostingID, stageID uuid.UUID) ([]models.Application, error)

	// Advance performs the atomic close-prior/open-new/history sequence and
	// returns the new (or, if idempotent, the unchanged) open transition.
	Advance(ctx context.Context, params AdvanceParams) (*models.StageTransition, error)

	// UpdateStatusOnly writes a StatusHistoryEntry and updates
	// Application.Status without touching stage transitions — used by
	// BulkCoordinator's set_status/reject op kinds (spec.md §4.5).
	UpdateStatusOnly(ctx context.Context, applicationID uuid.UUID, newStatus, reason string, actorID uuid.UUID, now time.Time) error

	// Escalate atomically inserts an Escalation and marks its transition
	// escalated, unless already escalated (spec.md §4.4).
	Escalate(ctx context.Context, transitionID uuid.UUID, severity models.EscalationSeverity, assigneeID uuid.UUID, reason string, now time.Time) (*models.Escalation, error)
	ResolveEscalation(ctx context.Context, escalationID, resolverID uuid.UUID, now time.Time) (*models.Escalation, error)
	ListEscalationsForUser(ctx context.Context, userID uuid.UUID, unresolvedOnly bool) ([]models.Escalation, error)
	GetEscalation(ctx context.Context, id uuid.UUID) (*models.Escalation, error)

	ApplicationsExist(ctx context.Context, ids []uuid.UUID) (missing []uuid.UUID, err error)
}
