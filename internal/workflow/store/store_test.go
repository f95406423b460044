package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Candidate{},
		&models.JobPosting{},
		&models.WorkflowStage{},
		&models.StageTransition{},
		&models.Escalation{},
		&models.StatusHistoryEntry{},
		&models.Application{},
		&models.Notification{},
		&models.AuditLog{},
	)
	require.NoError(t, err)
	return db
}

// seedPipeline creates a company, an actor user, a two-stage job posting, a
// candidate, and an application sitting in the first stage's open transition.
func seedPipeline(t *testing.T, db *gorm.DB, s *GormStore) (app *models.Application, stages []models.WorkflowStage, actorID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	company := &models.Company{Name: "Acme Hiring Co"}
	require.NoError(t, db.Create(company).Error)

	actor := &models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID}
	require.NoError(t, db.Create(actor).Error)

	jp := &models.JobPosting{CompanyID: company.ID, Title: "Backend Engineer", CreatedByID: &actor.ID}
	require.NoError(t, db.Create(jp).Error)

	stages = []models.WorkflowStage{
		{JobPostingID: jp.ID, Name: "Applied", OrderIndex: 1, SLAHours: 24, Active: true},
		{JobPostingID: jp.ID, Name: "Initial Screening", OrderIndex: 2, SLAHours: 48, Active: true},
	}
	require.NoError(t, s.CreateStages(ctx, stages))

	candidate := &models.Candidate{CompanyID: company.ID, FirstName: "Riley", LastName: "Chen", Email: "riley.chen@example.com"}
	require.NoError(t, db.Create(candidate).Error)

	application := &models.Application{CompanyID: company.ID, CandidateID: candidate.ID, JobPostingID: jp.ID, Status: "applied"}
	require.NoError(t, db.Create(application).Error)

	now := time.Now()
	_, err := s.Advance(ctx, AdvanceParams{
		ApplicationID: application.ID,
		TargetStage:   &stages[0],
		ActorID:       actor.ID,
		Notes:         "Application received",
		Now:           now,
	})
	require.NoError(t, err)

	return application, stages, actor.ID
}

func TestAdvance_SingleAdvance(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, stages, actorID := seedPipeline(t, db, s)
	ctx := context.Background()

	now := time.Now()
	transition, err := s.Advance(ctx, AdvanceParams{
		ApplicationID: app.ID,
		TargetStage:   &stages[1],
		ActorID:       actorID,
		Notes:         "Passed initial screening",
		Now:           now,
	})
	require.NoError(t, err)
	assert.Equal(t, stages[1].ID, transition.StageID)
	assert.Nil(t, transition.ExitedAt)
	assert.WithinDuration(t, now.Add(48*time.Hour), transition.SLADeadline, time.Second)

	reloaded, err := s.GetTransition(ctx, transition.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ExitedAt)

	var histories []models.StatusHistoryEntry
	require.NoError(t, db.Where("application_id = ?", app.ID).Order("created_at ASC").Find(&histories).Error)
	require.Len(t, histories, 2)
	assert.Equal(t, "initial_screening", histories[1].NewStatus)

	var refreshed models.Application
	require.NoError(t, db.First(&refreshed, "id = ?", app.ID).Error)
	assert.Equal(t, "initial_screening", refreshed.Status)
}

func TestAdvance_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, stages, actorID := seedPipeline(t, db, s)
	ctx := context.Background()

	open, err := s.OpenTransitionOf(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, open)

	again, err := s.Advance(ctx, AdvanceParams{
		ApplicationID: app.ID,
		TargetStage:   &stages[0],
		ActorID:       actorID,
		Notes:         "duplicate advance",
		Now:           time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, open.ID, again.ID, "re-advancing to the already-open stage must return the same transition")

	var histories []models.StatusHistoryEntry
	require.NoError(t, db.Where("application_id = ?", app.ID).Find(&histories).Error)
	assert.Len(t, histories, 1, "idempotent advance must not write a second history entry")
}

func TestApplicationsExist_PartialMissing(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, _, _ := seedPipeline(t, db, s)
	ctx := context.Background()

	missingID := uuid.New()
	missing, err := s.ApplicationsExist(ctx, []uuid.UUID{app.ID, missingID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{missingID}, missing)
}

func TestApplicationsExist_AllPresent(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, _, _ := seedPipeline(t, db, s)
	ctx := context.Background()

	missing, err := s.ApplicationsExist(ctx, []uuid.UUID{app.ID})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestUpdateStatusOnly_WritesHistoryWithoutTouchingTransition(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, _, actorID := seedPipeline(t, db, s)
	ctx := context.Background()

	openBefore, err := s.OpenTransitionOf(ctx, app.ID)
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatusOnly(ctx, app.ID, "rejected", "no longer a fit", actorID, time.Now()))

	openAfter, err := s.OpenTransitionOf(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, openBefore.ID, openAfter.ID, "UpdateStatusOnly must not close or replace the open transition")

	var histories []models.StatusHistoryEntry
	require.NoError(t, db.Where("application_id = ? AND new_status = ?", app.ID, "rejected").Find(&histories).Error)
	assert.Len(t, histories, 1, "UpdateStatusOnly must write exactly one history entry")

	var refreshed models.Application
	require.NoError(t, db.First(&refreshed, "id = ?", app.ID).Error)
	assert.Equal(t, "rejected", refreshed.Status)
}

func TestEscalate_IdempotentOnAlreadyEscalatedTransition(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, _, actorID := seedPipeline(t, db, s)
	ctx := context.Background()

	open, err := s.OpenTransitionOf(ctx, app.ID)
	require.NoError(t, err)

	first, err := s.Escalate(ctx, open.ID, models.SeverityWarning, actorID, "SLA breached", time.Now())
	require.NoError(t, err)

	second, err := s.Escalate(ctx, open.ID, models.SeverityCritical, actorID, "SLA breached again", time.Now())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "escalating an already-escalated transition returns the existing escalation")
	assert.Equal(t, models.SeverityWarning, second.Severity, "severity must not be mutated by the duplicate escalate call")
}

func TestEscalate_AlreadyResolvedTransitionReturnsAlreadyEscalated(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	app, _, actorID := seedPipeline(t, db, s)
	ctx := context.Background()

	open, err := s.OpenTransitionOf(ctx, app.ID)
	require.NoError(t, err)

	esc, err := s.Escalate(ctx, open.ID, models.SeverityWarning, actorID, "first breach", time.Now())
	require.NoError(t, err)
	_, err = s.ResolveEscalation(ctx, esc.ID, actorID, time.Now())
	require.NoError(t, err)

	_, err = s.Escalate(ctx, open.ID, models.SeverityCritical, actorID, "second breach", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyEscalated)
}

func TestListOpenOverdue(t *testing.T) {
	db := setupTestDB(t)
	s := NewGormStore(db)
	_, _, _ = seedPipeline(t, db, s)
	ctx := context.Background()

	notYetOverdue, err := s.ListOpenOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, notYetOverdue, "stage SLA deadlines are hours out; nothing should be overdue yet")

	overdue, err := s.ListOpenOverdue(ctx, time.Now().Add(25*time.Hour))
	require.NoError(t, err)
	assert.Len(t, overdue, 1)
}
