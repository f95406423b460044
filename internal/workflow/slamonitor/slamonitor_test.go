package slamonitor

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/escalation"
	"workflowengine/internal/workflow/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

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
	)
	require.NoError(t, err)
	return db
}

func TestClassifySeverity_Thresholds(t *testing.T) {
	cfg := DefaultConfig()
	deadline := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		now      time.Time
		expected models.EscalationSeverity
	}{
		{"just barely overdue is a warning", deadline.Add(1 * time.Minute), models.SeverityWarning},
		{"23 hours overdue is still a warning", deadline.Add(23 * time.Hour), models.SeverityWarning},
		{"exactly 24 hours overdue rolls to critical", deadline.Add(24 * time.Hour), models.SeverityCritical},
		{"71 hours overdue is still critical", deadline.Add(71 * time.Hour), models.SeverityCritical},
		{"exactly 72 hours overdue rolls to overdue", deadline.Add(72 * time.Hour), models.SeverityOverdue},
		{"far overdue stays overdue", deadline.Add(240 * time.Hour), models.SeverityOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifySeverity(tc.now, deadline, cfg))
		})
	}
}

func TestClassifySeverity_RespectsCustomCaps(t *testing.T) {
	cfg := Config{SeverityWarningCapHours: 1, SeverityCriticalCapHours: 2}
	deadline := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.SeverityWarning, classifySeverity(deadline.Add(30*time.Minute), deadline, cfg))
	assert.Equal(t, models.SeverityCritical, classifySeverity(deadline.Add(90*time.Minute), deadline, cfg))
	assert.Equal(t, models.SeverityOverdue, classifySeverity(deadline.Add(3*time.Hour), deadline, cfg))
}

func TestCheckOverdue_ReturnsOnlyPastDeadlineOpenTransitions(t *testing.T) {
	db := setupTestDB(t)
	gormStore := store.NewGormStore(db)
	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	esc := escalation.NewEscalationService(gormStore, fakeClock)
	mon := NewSLAMonitor(gormStore, fakeClock, esc, DefaultConfig(), testLogger())

	ctx := context.Background()
	company := &models.Company{Name: "Acme Hiring Co"}
	require.NoError(t, db.Create(company).Error)
	actor := &models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID}
	require.NoError(t, db.Create(actor).Error)
	jp := &models.JobPosting{CompanyID: company.ID, Title: "Backend Engineer", CreatedByID: &actor.ID}
	require.NoError(t, db.Create(jp).Error)
	stage := models.WorkflowStage{JobPostingID: jp.ID, Name: "Applied", OrderIndex: 1, SLAHours: 1, Active: true}
	require.NoError(t, gormStore.CreateStages(ctx, []models.WorkflowStage{stage}))
	candidate := &models.Candidate{CompanyID: company.ID, FirstName: "Jordan", LastName: "Ibarra", Email: "jordan.ibarra@example.com"}
	require.NoError(t, db.Create(candidate).Error)
	app := &models.Application{CompanyID: company.ID, CandidateID: candidate.ID, JobPostingID: jp.ID, Status: "applied"}
	require.NoError(t, db.Create(app).Error)

	_, err := gormStore.Advance(ctx, store.AdvanceParams{
		ApplicationID: app.ID,
		TargetStage:   &stage,
		ActorID:       actor.ID,
		Now:           fakeClock.Now(),
	})
	require.NoError(t, err)

	notYet, err := mon.CheckOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, notYet)

	fakeClock.Advance(2 * time.Hour)
	overdue, err := mon.CheckOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, app.ID, overdue[0].ApplicationID)
}

func TestScanOnce_EscalatesOverdueTransitionsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	gormStore := store.NewGormStore(db)
	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	esc := escalation.NewEscalationService(gormStore, fakeClock)
	mon := NewSLAMonitor(gormStore, fakeClock, esc, DefaultConfig(), testLogger())

	ctx := context.Background()
	company := &models.Company{Name: "Acme Hiring Co"}
	require.NoError(t, db.Create(company).Error)
	actor := &models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID}
	require.NoError(t, db.Create(actor).Error)
	jp := &models.JobPosting{CompanyID: company.ID, Title: "Backend Engineer", CreatedByID: &actor.ID}
	require.NoError(t, db.Create(jp).Error)
	stage := models.WorkflowStage{JobPostingID: jp.ID, Name: "Applied", OrderIndex: 1, SLAHours: 1, Active: true}
	require.NoError(t, gormStore.CreateStages(ctx, []models.WorkflowStage{stage}))
	candidate := &models.Candidate{CompanyID: company.ID, FirstName: "Riley", LastName: "Chen", Email: "riley.chen@example.com"}
	require.NoError(t, db.Create(candidate).Error)
	app := &models.Application{CompanyID: company.ID, CandidateID: candidate.ID, JobPostingID: jp.ID, Status: "applied"}
	require.NoError(t, db.Create(app).Error)
	_, err := gormStore.Advance(ctx, store.AdvanceParams{
		ApplicationID: app.ID,
		TargetStage:   &stage,
		ActorID:       actor.ID,
		Now:           fakeClock.Now(),
	})
	require.NoError(t, err)

	fakeClock.Advance(30 * time.Hour)
	require.NoError(t, mon.scanOnce(ctx))

	var escalations []models.Escalation
	require.NoError(t, db.Find(&escalations).Error)
	require.Len(t, escalations, 1)
	assert.Equal(t, models.SeverityCritical, escalations[0].Severity)

	// A second scan must not duplicate the escalation (exactly-once).
	require.NoError(t, mon.scanOnce(ctx))
	require.NoError(t, db.Find(&escalations).Error)
	assert.Len(t, escalations, 1)
}
