package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/store"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.Candidate{},
		&models.JobPosting{},
		&models.WorkflowStage{},
		&models.StageTransition{},
		&models.Escalation{},
		&models.StatusHistoryEntry{},
		&models.Application{},
	))
	return db
}

type fixture struct {
	store      *store.GormStore
	clock      *clock.FakeClock
	service    *EscalationService
	app        *models.Application
	transition *models.StageTransition
	creatorID  uuid.UUID
}

func setupFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	ctx := context.Background()

	gormStore := store.NewGormStore(db)
	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	svc := NewEscalationService(gormStore, fakeClock)

	company := &models.Company{Name: "Acme Hiring Co"}
	require.NoError(t, db.Create(company).Error)
	creator := &models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID}
	require.NoError(t, db.Create(creator).Error)
	jp := &models.JobPosting{CompanyID: company.ID, Title: "Backend Engineer", CreatedByID: &creator.ID}
	require.NoError(t, db.Create(jp).Error)
	stages := []models.WorkflowStage{{JobPostingID: jp.ID, Name: "Applied", OrderIndex: 1, SLAHours: 1, Active: true}}
	require.NoError(t, gormStore.CreateStages(ctx, stages))
	stage := stages[0]
	candidate := &models.Candidate{CompanyID: company.ID, FirstName: "Jordan", LastName: "Ibarra", Email: "jordan.ibarra@example.com"}
	require.NoError(t, db.Create(candidate).Error)
	app := &models.Application{CompanyID: company.ID, CandidateID: candidate.ID, JobPostingID: jp.ID, Status: "applied"}
	require.NoError(t, db.Create(app).Error)

	transition, err := gormStore.Advance(ctx, store.AdvanceParams{
		ApplicationID: app.ID,
		TargetStage:   &stage,
		ActorID:       creator.ID,
		Now:           fakeClock.Now(),
	})
	require.NoError(t, err)

	return fixture{store: gormStore, clock: fakeClock, service: svc, app: app, transition: transition, creatorID: creator.ID}
}

func TestEscalate_AssignsToJobPostingCreator(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	ctx := context.Background()

	esc, err := f.service.Escalate(ctx, f.transition.ID, models.SeverityWarning, "SLA breached")
	require.NoError(t, err)
	assert.Equal(t, f.creatorID, esc.AssigneeID)
	assert.Equal(t, models.SeverityWarning, esc.Severity)
}

func TestResolve_MarksResolvedWithResolver(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	ctx := context.Background()

	esc, err := f.service.Escalate(ctx, f.transition.ID, models.SeverityCritical, "still overdue")
	require.NoError(t, err)

	resolverID := f.creatorID
	resolved, err := f.service.Resolve(ctx, esc.ID, resolverID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, resolverID, *resolved.ResolvedBy)
}

func TestListForUser_ComputesOverdueHoursAndDisplayFields(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	ctx := context.Background()

	_, err := f.service.Escalate(ctx, f.transition.ID, models.SeverityWarning, "breach")
	require.NoError(t, err)

	f.clock.Advance(10 * time.Hour)
	views, err := f.service.ListForUser(ctx, f.creatorID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Jordan Ibarra", views[0].CandidateName)
	assert.Equal(t, "Backend Engineer", views[0].JobTitle)
	assert.Equal(t, "Applied", views[0].StageName)
	assert.Greater(t, views[0].OverdueHours, 8.0)
}

func TestListForUser_ExcludesResolvedEscalations(t *testing.T) {
	db := setupTestDB(t)
	f := setupFixture(t, db)
	ctx := context.Background()

	esc, err := f.service.Escalate(ctx, f.transition.ID, models.SeverityWarning, "breach")
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, esc.ID, f.creatorID)
	require.NoError(t, err)

	views, err := f.service.ListForUser(ctx, f.creatorID)
	require.NoError(t, err)
	assert.Empty(t, views)
}
