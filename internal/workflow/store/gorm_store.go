package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
)

// GormStore is the production Store, grounded on the teacher's
// application_service.go/escalation_service.go transaction style:
// db.Transaction(func(tx *gorm.DB) error {...}) for compound writes, with a
// SELECT ... FOR UPDATE-equivalent row lock (clause.Locking{Strength:
// "UPDATE"}) on the open transition to make Advance linearizable per
// application (resolves spec.md §9 Open Question (a)).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a *gorm.DB as a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := s.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &app, nil
}

func (s *GormStore) GetCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	var c models.Candidate
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &c, nil
}

func (s *GormStore) GetJobPosting(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	var jp models.JobPosting
	if err := s.db.WithContext(ctx).First(&jp, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &jp, nil
}

func (s *GormStore) GetTransition(ctx context.Context, id uuid.UUID) (*models.StageTransition, error) {
	var t models.StageTransition
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransitionNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &t, nil
}

func (s *GormStore) GetStage(ctx context.Context, id uuid.UUID) (*models.WorkflowStage, error) {
	var stage models.WorkflowStage
	if err := s.db.WithContext(ctx).First(&stage, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStageNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &stage, nil
}

func (s *GormStore) ListStagesForJob(ctx context.Context, jobPostingID uuid.UUID, includeInactive bool) ([]models.WorkflowStage, error) {
	q := s.db.WithContext(ctx).Where("job_posting_id = ?", jobPostingID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var stages []models.WorkflowStage
	if err := q.Order("order_index ASC").Find(&stages).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return stages, nil
}

func (s *GormStore) CreateStages(ctx context.Context, stages []models.WorkflowStage) error {
	if len(stages) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&stages).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return nil
}

func (s *GormStore) OpenTransitionOf(ctx context.Context, applicationID uuid.UUID) (*models.StageTransition, error) {
	var t models.StageTransition
	err := s.db.WithContext(ctx).
		Where("application_id = ? AND exited_at IS NULL", applicationID).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &t, nil
}

func (s *GormStore) ListTransitionsForApplication(ctx context.Context, applicationID uuid.UUID) ([]models.StageTransition, error) {
	var ts []models.StageTransition
	err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("entered_at ASC").
		Find(&ts).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return ts, nil
}

func (s *GormStore) ListOpenOverdue(ctx context.Context, now time.Time) ([]models.StageTransition, error) {
	var ts []models.StageTransition
	err := s.db.WithContext(ctx).
		Where("exited_at IS NULL AND sla_deadline < ? AND is_escalated = ?", now, false).
		Find(&ts).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return ts, nil
}

func (s *GormStore) ListApplicationsInStage(ctx context.Context, jobPostingID, stageID uuid.UUID) ([]models.Application, error) {
	var apps []models.Application
	err := s.db.WithContext(ctx).
		Joins("JOIN stage_transitions ON stage_transitions.application_id = applications.id").
		Where("applications.job_posting_id = ? AND stage_transitions.stage_id = ? AND stage_transitions.exited_at IS NULL", jobPostingID, stageID).
		Find(&apps).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return apps, nil
}

// Advance performs the atomic close-prior/open-new/history sequence
// (spec.md §4.2). It first takes a row lock on the application, which exists
// even before the first transition, and then on the open transition, so
// concurrent advances for the same application serialize rather than race.
func (s *GormStore) Advance(ctx context.Context, p AdvanceParams) (*models.StageTransition, error) {
	var result *models.StageTransition

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", p.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrApplicationNotFound
			}
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		var open models.StageTransition
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("application_id = ? AND exited_at IS NULL", p.ApplicationID).
			First(&open).Error

		switch {
		case err == nil:
			if open.StageID == p.TargetStage.ID {
				// Idempotent: already in the target stage.
				result = &open
				return nil
			}
			open.ExitedAt = &p.Now
			if err := tx.Save(&open).Error; err != nil {
				return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// First transition for this application; nothing to close.
		default:
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		previousStatus := ""
		var app models.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, "id = ?", p.ApplicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrApplicationNotFound
			}
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}
		previousStatus = app.Status

		newTransition := models.StageTransition{
			ApplicationID: p.ApplicationID,
			StageID:       p.TargetStage.ID,
			EnteredAt:     p.Now,
			SLADeadline:   p.Now.Add(time.Duration(p.TargetStage.SLAHours) * time.Hour),
			IsEscalated:   false,
			Notes:         p.Notes,
		}
		if err := tx.Create(&newTransition).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		newStatus := p.TargetStage.CanonicalStatus()
		if err := tx.Model(&app).Update("status", newStatus).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		reason := p.Notes
		if reason == "" {
			reason = "Advanced to stage: " + p.TargetStage.Name
		}
		history := models.StatusHistoryEntry{
			ApplicationID:  p.ApplicationID,
			PreviousStatus: previousStatus,
			NewStatus:      newStatus,
			ChangedByID:    p.ActorID,
			ChangeReason:   reason,
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		result = &newTransition
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatusOnly is used by BulkCoordinator's set_status/reject paths,
// which update status and write history without moving stage transitions.
func (s *GormStore) UpdateStatusOnly(ctx context.Context, applicationID uuid.UUID, newStatus, reason string, actorID uuid.UUID, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, "id = ?", applicationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrApplicationNotFound
			}
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		previousStatus := app.Status
		if err := tx.Model(&app).Update("status", newStatus).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		history := models.StatusHistoryEntry{
			ApplicationID:  applicationID,
			PreviousStatus: previousStatus,
			NewStatus:      newStatus,
			ChangedByID:    actorID,
			ChangeReason:   reason,
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}
		return nil
	})
}

// Escalate atomically inserts an Escalation and marks the transition
// escalated, unless it already is (spec.md §4.4, §4.3 exactly-once property).
func (s *GormStore) Escalate(ctx context.Context, transitionID uuid.UUID, severity models.EscalationSeverity, assigneeID uuid.UUID, reason string, now time.Time) (*models.Escalation, error) {
	var result *models.Escalation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.StageTransition
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", transitionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransitionNotFound
			}
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		if t.IsEscalated {
			var existing models.Escalation
			err := tx.Where("stage_transition_id = ? AND resolved = ?", transitionID, false).
				Order("created_at ASC").
				First(&existing).Error
			if err == nil {
				result = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
			}
			// is_escalated was true but no unresolved escalation remains
			// (resolved already); treat as AlreadyEscalated per the flag.
			return apperrors.ErrAlreadyEscalated
		}

		esc := models.Escalation{
			ApplicationID:     t.ApplicationID,
			StageTransitionID: t.ID,
			Severity:          severity,
			AssigneeID:        assigneeID,
			Reason:            reason,
		}
		if err := tx.Create(&esc).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		t.IsEscalated = true
		t.EscalatedAt = &now
		t.EscalatedToUserID = &assigneeID
		if err := tx.Save(&t).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}

		result = &esc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) ResolveEscalation(ctx context.Context, escalationID, resolverID uuid.UUID, now time.Time) (*models.Escalation, error) {
	var result *models.Escalation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var esc models.Escalation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&esc, "id = ?", escalationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrEscalationNotFound
			}
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}
		if esc.Resolved {
			return apperrors.ErrAlreadyResolved
		}

		esc.Resolved = true
		esc.ResolvedAt = &now
		esc.ResolvedBy = &resolverID
		if err := tx.Save(&esc).Error; err != nil {
			return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
		}
		result = &esc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *GormStore) ListEscalationsForUser(ctx context.Context, userID uuid.UUID, unresolvedOnly bool) ([]models.Escalation, error) {
	q := s.db.WithContext(ctx).Where("assignee_id = ?", userID)
	if unresolvedOnly {
		q = q.Where("resolved = ?", false)
	}
	var escs []models.Escalation
	if err := q.Order("created_at ASC").Find(&escs).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return escs, nil
}

func (s *GormStore) GetEscalation(ctx context.Context, id uuid.UUID) (*models.Escalation, error) {
	var esc models.Escalation
	if err := s.db.WithContext(ctx).First(&esc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEscalationNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}
	return &esc, nil
}

// ApplicationsExist reports which of the given ids do not exist, for
// BulkCoordinator's pre-submission validation (spec.md §4.5).
func (s *GormStore) ApplicationsExist(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
	}

	foundSet := make(map[uuid.UUID]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if !foundSet[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
