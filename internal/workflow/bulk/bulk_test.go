package bulk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/notify"
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
		&models.Notification{},
	))
	return db
}

// capturingDispatcher records every intent it was asked to dispatch, guarded
// by a mutex since BulkCoordinator dispatches from per-submission goroutines.
type capturingDispatcher struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (d *capturingDispatcher) Dispatch(intent notify.Intent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intents = append(d.intents, intent)
	return nil
}

func (d *capturingDispatcher) snapshot() []notify.Intent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]notify.Intent, len(d.intents))
	copy(out, d.intents)
	return out
}

type bulkFixture struct {
	db          *gorm.DB
	gormStore   *store.GormStore
	fakeClock   *clock.FakeClock
	workflow    *engine.WorkflowEngine
	dispatcher  *capturingDispatcher
	coordinator *BulkCoordinator
	company     models.Company
	actor       models.User
	jobPosting  models.JobPosting
	stages      []models.WorkflowStage
}

func setupBulkFixture(t *testing.T) *bulkFixture {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)

	gormStore := store.NewGormStore(db)
	fakeClock := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	workflowEngine := engine.NewWorkflowEngine(gormStore, fakeClock)
	dispatcher := &capturingDispatcher{}
	coordinator := NewBulkCoordinator(gormStore, workflowEngine, fakeClock, dispatcher)

	company := models.Company{Name: "Acme Hiring Co"}
	require.NoError(t, db.Create(&company).Error)
	actor := models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID}
	require.NoError(t, db.Create(&actor).Error)
	jp := models.JobPosting{CompanyID: company.ID, Title: "Backend Engineer", CreatedByID: &actor.ID}
	require.NoError(t, db.Create(&jp).Error)

	stages := []models.WorkflowStage{
		{JobPostingID: jp.ID, Name: "Applied", OrderIndex: 1, SLAHours: 24, Active: true},
		{JobPostingID: jp.ID, Name: "Interview", OrderIndex: 2, SLAHours: 96, Active: true},
	}
	require.NoError(t, gormStore.CreateStages(ctx, stages))

	return &bulkFixture{
		db:          db,
		gormStore:   gormStore,
		fakeClock:   fakeClock,
		workflow:    workflowEngine,
		dispatcher:  dispatcher,
		coordinator: coordinator,
		company:     company,
		actor:       actor,
		jobPosting:  jp,
		stages:      stages,
	}
}

func (f *bulkFixture) newApplication(t *testing.T, email string) models.Application {
	t.Helper()
	candidate := models.Candidate{CompanyID: f.company.ID, FirstName: "Test", LastName: "Candidate", Email: email}
	require.NoError(t, f.db.Create(&candidate).Error)
	app := models.Application{CompanyID: f.company.ID, CandidateID: candidate.ID, JobPostingID: f.jobPosting.ID, Status: "applied"}
	require.NoError(t, f.db.Create(&app).Error)
	return app
}

func awaitTerminal(t *testing.T, c *BulkCoordinator, opID string) Progress {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p, err := c.GetProgress(opID)
		require.NoError(t, err)
		switch p.Status {
		case StatusCompleted, StatusFailed, StatusCancelled:
			return p
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("bulk operation did not reach a terminal state in time")
	return Progress{}
}

func TestSubmit_UnknownApplicationIDsFailPreValidation(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	app := f.newApplication(t, "riley.chen@example.com")
	unknown := uuid.New()

	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{app.ID, unknown}, Params{TargetStageID: f.stages[0].ID}, f.actor.ID)
	require.Error(t, err)
	assert.Empty(t, opID)

	var unknownErr *apperrors.UnknownApplicationsError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, []string{unknown.String()}, unknownErr.IDs)

	// Pre-validation must reject the whole submission: no operation is ever
	// started, so there is nothing to poll for progress.
	assert.Empty(t, f.coordinator.ops)
}

func TestSubmit_MoveToStage_AllSucceed(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	app1 := f.newApplication(t, "riley.chen@example.com")
	app2 := f.newApplication(t, "sam.okafor@example.com")

	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{app1.ID, app2.ID}, Params{TargetStageID: f.stages[0].ID, Reason: "bulk-moved"}, f.actor.ID)
	require.NoError(t, err)

	progress := awaitTerminal(t, f.coordinator, opID)
	assert.Equal(t, StatusCompleted, progress.Status)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, 2, progress.Successful)
	assert.Equal(t, 0, progress.Failed)
	assert.InDelta(t, 100.0, progress.ProgressPercentage(), 0.001)
	require.NotNil(t, progress.CompletedAt)
}

func TestSubmit_AllItemsFailMarksOperationFailed(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	first := f.newApplication(t, "riley.chen@example.com")
	second := f.newApplication(t, "sam.okafor@example.com")

	// Both items target a stage of another job's pipeline, so applyOne's
	// engine.Advance call fails for each of them.
	otherJP := models.JobPosting{CompanyID: f.company.ID, Title: "Other role"}
	require.NoError(t, f.db.Create(&otherJP).Error)
	foreignStages := []models.WorkflowStage{{JobPostingID: otherJP.ID, Name: "Applied", OrderIndex: 1, SLAHours: 24, Active: true}}
	require.NoError(t, f.gormStore.CreateStages(ctx, foreignStages))
	foreignStage := foreignStages[0]

	params := Params{TargetStageID: foreignStage.ID}
	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{first.ID, second.ID}, params, f.actor.ID)
	require.NoError(t, err)

	progress := awaitTerminal(t, f.coordinator, opID)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, 0, progress.Successful, "both items target the foreign stage and must both fail")
	assert.Equal(t, 2, progress.Failed)
	assert.Equal(t, StatusFailed, progress.Status)
	require.Len(t, progress.Errors, 2)
}

func TestSubmit_MixedSuccessAndFailureCompletesWithRecordedErrors(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	good := f.newApplication(t, "riley.chen@example.com")
	missingLater := uuid.New()

	// Bypass Submit's pre-validation by calling run directly, to exercise a
	// mid-run per-item failure (an id valid at submission time but whose
	// application disappears before applyOne executes) alongside a success.
	op := &operation{progress: Progress{OpID: "manual", Total: 2, Status: StatusPending, StartedAt: f.fakeClock.Now()}}
	op.cancel = func() {}
	f.coordinator.mu.Lock()
	f.coordinator.ops[op.progress.OpID] = op
	f.coordinator.mu.Unlock()

	f.coordinator.run(ctx, op, OpSetStatus, []uuid.UUID{good.ID, missingLater}, Params{NewStatus: "screening"}, f.actor.ID)

	progress, err := f.coordinator.GetProgress("manual")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, progress.Status, "at least one success keeps the operation out of the failed terminal state")
	assert.Equal(t, 1, progress.Successful)
	assert.Equal(t, 1, progress.Failed)
	require.Len(t, progress.Errors, 1)
	assert.Equal(t, missingLater.String(), progress.Errors[0].ApplicationID)
}

func TestDispatchNotifications_FanOutSharesOneIDAndOmitsHiringManager(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	app := f.newApplication(t, "riley.chen@example.com")

	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{app.ID}, Params{TargetStageID: f.stages[1].ID}, f.actor.ID)
	require.NoError(t, err)
	awaitTerminal(t, f.coordinator, opID)

	intents := f.dispatcher.snapshot()
	require.Len(t, intents, 1, "moving straight to Interview should trigger exactly one notification intent")
	intent := intents[0]
	assert.NotEmpty(t, intent.NotificationID)
	for _, r := range intent.Recipients {
		assert.NotEqual(t, models.RecipientHiringManager, r.Type, "the bulk path never resolves a hiring manager recipient")
	}
	require.Len(t, intent.Recipients, 1)
	assert.Equal(t, models.RecipientCandidate, intent.Recipients[0].Type)
}

func TestCancel_RejectsAlreadyTerminalOperation(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	app := f.newApplication(t, "riley.chen@example.com")
	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{app.ID}, Params{TargetStageID: f.stages[0].ID}, f.actor.ID)
	require.NoError(t, err)
	awaitTerminal(t, f.coordinator, opID)

	err = f.coordinator.Cancel(opID)
	assert.ErrorIs(t, err, apperrors.ErrOperationTerminal)
}

func TestCleanup_RemovesTerminalOperationButNotInProgress(t *testing.T) {
	f := setupBulkFixture(t)
	ctx := context.Background()

	app := f.newApplication(t, "riley.chen@example.com")
	opID, err := f.coordinator.Submit(ctx, OpMoveToStage, []uuid.UUID{app.ID}, Params{TargetStageID: f.stages[0].ID}, f.actor.ID)
	require.NoError(t, err)
	awaitTerminal(t, f.coordinator, opID)

	require.NoError(t, f.coordinator.Cleanup(opID))
	_, err = f.coordinator.GetProgress(opID)
	assert.ErrorIs(t, err, apperrors.ErrOperationNotFound)

	running := &operation{progress: Progress{OpID: "running", Total: 1, Status: StatusRunning, StartedAt: f.fakeClock.Now()}}
	running.cancel = func() {}
	f.coordinator.mu.Lock()
	f.coordinator.ops[running.progress.OpID] = running
	f.coordinator.mu.Unlock()
	assert.ErrorIs(t, f.coordinator.Cleanup("running"), apperrors.ErrOperationInProgress)
}

func TestGetProgress_UnknownOperation(t *testing.T) {
	f := setupBulkFixture(t)
	_, err := f.coordinator.GetProgress(uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrOperationNotFound)
}

func TestProgressPercentage_RoundsAndHandlesZeroTotal(t *testing.T) {
	p := Progress{Total: 3, Processed: 1}
	assert.InDelta(t, 33.33, p.ProgressPercentage(), 0.01)

	empty := Progress{Total: 0, Processed: 0}
	assert.Equal(t, 0.0, empty.ProgressPercentage())
}
