// Package registry creates a job posting's stage pipeline: the canonical
// default sequence (spec.md §4.7) or custom stages obeying the order_index
// invariant (spec.md §3 invariant 4).
package registry

import (
	"context"

	"github.com/google/uuid"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
	"workflowengine/internal/workflow/store"
)

// defaultStage is one row of the canonical sequence.
type defaultStage struct {
	name     string
	slaHours int
}

var defaultStages = []defaultStage{
	{"Applied", 24},
	{"Initial Screening", 48},
	{"Technical Assessment", 72},
	{"Interview", 96},
	{"Final Review", 48},
	{"Decision", 24},
}

// StageRegistry creates and lists a job posting's pipeline of stages.
type StageRegistry struct {
	store                store.Store
	defaultStageSLAHours int
}

// NewStageRegistry constructs a StageRegistry backed by the given Store.
// defaultStageSLAHours is the fallback SLA when a custom stage omits one
// (spec.md §6 configuration, default_stage_sla_hours); pass 0 to use 72.
func NewStageRegistry(s store.Store, defaultStageSLAHours int) *StageRegistry {
	if defaultStageSLAHours <= 0 {
		defaultStageSLAHours = 72
	}
	return &StageRegistry{store: s, defaultStageSLAHours: defaultStageSLAHours}
}

// CreateDefaults creates the canonical six-stage sequence for a job posting
// (spec.md §4.7).
func (r *StageRegistry) CreateDefaults(ctx context.Context, jobPostingID uuid.UUID) ([]models.WorkflowStage, error) {
	stages := make([]models.WorkflowStage, 0, len(defaultStages))
	for i, d := range defaultStages {
		stages = append(stages, models.WorkflowStage{
			JobPostingID: jobPostingID,
			Name:         d.name,
			OrderIndex:   i + 1,
			SLAHours:     d.slaHours,
			Active:       true,
		})
	}
	if err := r.store.CreateStages(ctx, stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// CreateCustom creates a caller-specified stage. order_index must lie in
// 1..n+1, where n is the number of the job's existing stages (active or
// not), and must not duplicate an existing one; on a job whose stages
// already form 1..n, only n+1 is accepted. The registry does not renumber
// existing stages.
func (r *StageRegistry) CreateCustom(ctx context.Context, jobPostingID uuid.UUID, name string, orderIndex, slaHours int) (*models.WorkflowStage, error) {
	existing, err := r.store.ListStagesForJob(ctx, jobPostingID, true)
	if err != nil {
		return nil, err
	}
	if orderIndex < 1 || orderIndex > len(existing)+1 {
		return nil, apperrors.NewAppError("INVALID_ORDER_INDEX", "order_index must extend the job's 1..n stage sequence", 400)
	}
	for _, s := range existing {
		if s.OrderIndex == orderIndex {
			return nil, apperrors.NewAppError("DUPLICATE_ORDER_INDEX", "a stage with this order_index already exists for the job", 409)
		}
	}

	if slaHours <= 0 {
		slaHours = r.defaultStageSLAHours
	}

	stage := models.WorkflowStage{
		JobPostingID: jobPostingID,
		Name:         name,
		OrderIndex:   orderIndex,
		SLAHours:     slaHours,
		Active:       true,
	}
	if err := r.store.CreateStages(ctx, []models.WorkflowStage{stage}); err != nil {
		return nil, err
	}
	return &stage, nil
}

// List returns a job posting's active stages, or all of its stages when
// includeInactive is true, ordered by order_index.
func (r *StageRegistry) List(ctx context.Context, jobPostingID uuid.UUID, includeInactive bool) ([]models.WorkflowStage, error) {
	return r.store.ListStagesForJob(ctx, jobPostingID, includeInactive)
}
