// Package escalation implements the EscalationService: escalation lifecycle
// (create, assign, resolve) for SLA breaches (spec.md §4.4). Grounded on the
// teacher's escalation_service.go transaction style and original_source's
// workflow_service.py (escalate_sla_violation, resolve_escalation).
package escalation

import (
	"context"

	"github.com/google/uuid"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/store"
)

// EscalationService owns the escalate/resolve/list-for-user operations.
type EscalationService struct {
	store store.Store
	clock clock.Clock
}

// NewEscalationService constructs an EscalationService.
func NewEscalationService(s store.Store, c clock.Clock) *EscalationService {
	return &EscalationService{store: s, clock: c}
}

// EscalationView augments an Escalation with the derived fields
// list_for_user needs (spec.md §4.4): overdue_hours, candidate name, job
// title, stage name.
type EscalationView struct {
	Escalation    models.Escalation
	OverdueHours  float64
	CandidateName string
	JobTitle      string
	StageName     string
}

// Escalate atomically records an SLA breach on transition, assigning it to
// the creator of the job posting that owns the application (original
// source's escalate_sla_violation: escalated_to=job.created_by). Idempotent:
// if the transition already carries an unresolved escalation, that
// escalation is returned unchanged rather than duplicated.
func (s *EscalationService) Escalate(ctx context.Context, transitionID uuid.UUID, severity models.EscalationSeverity, reason string) (*models.Escalation, error) {
	assigneeID, err := s.resolveAssignee(ctx, transitionID)
	if err != nil {
		return nil, err
	}
	return s.store.Escalate(ctx, transitionID, severity, assigneeID, reason, s.clock.Now())
}

// resolveAssignee walks transition -> application -> job posting ->
// created_by to find the responsible user.
func (s *EscalationService) resolveAssignee(ctx context.Context, transitionID uuid.UUID) (uuid.UUID, error) {
	t, err := s.store.GetTransition(ctx, transitionID)
	if err != nil {
		return uuid.Nil, err
	}
	app, err := s.store.GetApplication(ctx, t.ApplicationID)
	if err != nil {
		return uuid.Nil, err
	}
	jp, err := s.store.GetJobPosting(ctx, app.JobPostingID)
	if err != nil {
		return uuid.Nil, err
	}
	if jp.CreatedByID == nil {
		if jp.HiringManagerID != nil {
			return *jp.HiringManagerID, nil
		}
		return uuid.Nil, apperrors.NewAppError("NO_ESCALATION_ASSIGNEE", "job posting has no creator or hiring manager to escalate to", 500)
	}
	return *jp.CreatedByID, nil
}

// Resolve marks an escalation resolved (spec.md §4.4).
func (s *EscalationService) Resolve(ctx context.Context, escalationID, resolverID uuid.UUID) (*models.Escalation, error) {
	return s.store.ResolveEscalation(ctx, escalationID, resolverID, s.clock.Now())
}

// ListForUser returns a user's unresolved escalations with derived overdue
// hours and display fields for candidate/job/stage (spec.md §4.4).
func (s *EscalationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]EscalationView, error) {
	escs, err := s.store.ListEscalationsForUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]EscalationView, 0, len(escs))
	for _, e := range escs {
		view := EscalationView{Escalation: e, OverdueHours: 0}

		t, err := s.store.GetTransition(ctx, e.StageTransitionID)
		if err == nil && t != nil {
			view.OverdueHours = now.Sub(t.SLADeadline).Hours()
			if stage, err := s.store.GetStage(ctx, t.StageID); err == nil {
				view.StageName = stage.Name
			}
		}

		if app, err := s.store.GetApplication(ctx, e.ApplicationID); err == nil && app != nil {
			if jp, err := s.store.GetJobPosting(ctx, app.JobPostingID); err == nil && jp != nil {
				view.JobTitle = jp.Title
			}
			if cand, err := s.store.GetCandidate(ctx, app.CandidateID); err == nil && cand != nil {
				view.CandidateName = cand.FullName()
			}
		}

		views = append(views, view)
	}
	return views, nil
}
