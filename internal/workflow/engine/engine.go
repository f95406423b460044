// Package engine implements the WorkflowEngine: the state machine that
// advances applications through a job's stage pipeline (spec.md §4.2).
// Grounded on the teacher's application_service.go (MoveToStage,
// isValidStageTransition, GetStats) and original_source's
// workflow_service.py (advance_application_to_stage,
// get_current_stage_transition, get_application_timeline,
// get_applications_by_stage).
package engine

import (
	"context"

	"github.com/google/uuid"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/store"
)

// TimelineEntry is one row of an application's ordered transition history,
// with a derived duration (spec.md §4.2 derived operations).
type TimelineEntry struct {
	Transition    models.StageTransition
	StageName     string
	DurationHours *float64
}

// WorkflowEngine advances applications between stages, atomically, via the
// Store, and answers the derived read-side queries.
type WorkflowEngine struct {
	store store.Store
	clock clock.Clock
}

// NewWorkflowEngine constructs a WorkflowEngine.
func NewWorkflowEngine(s store.Store, c clock.Clock) *WorkflowEngine {
	return &WorkflowEngine{store: s, clock: c}
}

// Advance moves an application to target_stage, atomically closing the
// prior open transition (if any) and opening a new one (spec.md §4.2).
// Returns the existing open transition unchanged if it already refers to
// target_stage (idempotence, scenario 2).
func (e *WorkflowEngine) Advance(ctx context.Context, applicationID, targetStageID, actorID uuid.UUID, notes string) (*models.StageTransition, error) {
	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	stage, err := e.store.GetStage(ctx, targetStageID)
	if err != nil {
		return nil, err
	}
	if !stage.Active {
		return nil, apperrors.ErrStageNotFound
	}
	if stage.JobPostingID != app.JobPostingID {
		return nil, apperrors.ErrStageNotForApplicationJob
	}

	return e.store.Advance(ctx, store.AdvanceParams{
		ApplicationID: applicationID,
		TargetStage:   stage,
		ActorID:       actorID,
		Notes:         notes,
		Now:           e.clock.Now(),
	})
}

// CurrentTransition returns the application's open transition, or nil if it
// has never entered a stage.
func (e *WorkflowEngine) CurrentTransition(ctx context.Context, applicationID uuid.UUID) (*models.StageTransition, error) {
	return e.store.OpenTransitionOf(ctx, applicationID)
}

// Timeline returns the application's full ordered transition history with
// computed duration_hours (null while open).
func (e *WorkflowEngine) Timeline(ctx context.Context, applicationID uuid.UUID) ([]TimelineEntry, error) {
	transitions, err := e.store.ListTransitionsForApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(transitions))
	for _, t := range transitions {
		stageName := ""
		if stage, err := e.store.GetStage(ctx, t.StageID); err == nil {
			stageName = stage.Name
		}
		entries = append(entries, TimelineEntry{
			Transition:    t,
			StageName:     stageName,
			DurationHours: t.DurationHours(),
		})
	}
	return entries, nil
}

// ApplicationsInStage returns applications whose open transition references
// the named stage within the job (original_source's
// get_applications_by_stage(job_id, stage_name), spec.md §9 supplemented
// feature).
func (e *WorkflowEngine) ApplicationsInStage(ctx context.Context, jobPostingID uuid.UUID, stageName string) ([]models.Application, error) {
	stages, err := e.store.ListStagesForJob(ctx, jobPostingID, true)
	if err != nil {
		return nil, err
	}
	var stageID uuid.UUID
	found := false
	for _, s := range stages {
		if s.Name == stageName {
			stageID = s.ID
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.ErrStageNotFound
	}
	return e.store.ListApplicationsInStage(ctx, jobPostingID, stageID)
}
