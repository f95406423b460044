// Package bulk implements the BulkCoordinator: tracks multi-application
// operations with observable progress, partial failure, and cancellation
// (spec.md §4.5). Grounded on original_source's routers/applications.py
// bulk_operation_progress map and background-task dispatch, re-expressed as
// an explicit Go worker: one goroutine per submission, progress guarded by
// a mutex, cancellation via a stored context.CancelFunc. The progress map
// itself is never exported (spec.md §9 "no global mutable progress map in
// production").
package bulk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"workflowengine/internal/apperrors"
	"workflowengine/internal/models"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/notify"
	"workflowengine/internal/workflow/store"
)

// OpKind is the kind of bulk operation being applied (spec.md §4.5).
type OpKind string

const (
	OpSetStatus   OpKind = "set_status"
	OpReject      OpKind = "reject"
	OpApprove     OpKind = "approve"
	OpMoveToStage OpKind = "move_to_stage"
)

// Status is the lifecycle state of a bulk operation (spec.md §4.5).
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ItemError records one per-item failure for the progress record.
type ItemError struct {
	ApplicationID string `json:"application_id"`
	Message       string `json:"message"`
}

// Progress is the observable record of a bulk operation (spec.md §4.5).
type Progress struct {
	OpID        string      `json:"op_id"`
	Total       int         `json:"total"`
	Processed   int         `json:"processed"`
	Successful  int         `json:"successful"`
	Failed      int         `json:"failed"`
	Status      Status      `json:"status"`
	Errors      []ItemError `json:"errors"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// ProgressPercentage returns processed/max(total,1)*100, rounded to two
// decimals (spec.md §4.5 get_progress).
func (p Progress) ProgressPercentage() float64 {
	total := p.Total
	if total < 1 {
		total = 1
	}
	pct := float64(p.Processed) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// Params is the per-item operation configuration (spec.md §4.5: parameters).
type Params struct {
	// TargetStageID is used by move_to_stage and approve (approve's target
	// stage is the caller's configured "next" stage).
	TargetStageID uuid.UUID
	// NewStatus is used by set_status and reject (reject's status is
	// derived as "rejected" if NewStatus is empty).
	NewStatus string
	Reason    string
}

type operation struct {
	mu       sync.Mutex
	progress Progress
	cancel   context.CancelFunc
}

// BulkCoordinator runs bulk operations asynchronously and tracks progress by
// op_id. Progress records persist in-memory until explicit cleanup (spec.md
// §4.5 "Retention"); implementers needing durability persist via the Store,
// which this core contract does not mandate.
type BulkCoordinator struct {
	store      store.Store
	engine     *engine.WorkflowEngine
	clock      clock.Clock
	planner    func(notify.TransitionEvent) []notify.Intent
	dispatcher notify.Dispatcher

	mu  sync.Mutex
	ops map[string]*operation
}

// NewBulkCoordinator constructs a BulkCoordinator. dispatcher may be nil to
// skip notification dispatch (e.g. in tests).
func NewBulkCoordinator(s store.Store, e *engine.WorkflowEngine, c clock.Clock, dispatcher notify.Dispatcher) *BulkCoordinator {
	return &BulkCoordinator{
		store:      s,
		engine:     e,
		clock:      c,
		planner:    notify.Plan,
		dispatcher: dispatcher,
		ops:        make(map[string]*operation),
	}
}

// Submit validates that every application id exists, then starts the
// operation asynchronously, returning immediately with status=pending
// (spec.md §4.5).
func (c *BulkCoordinator) Submit(ctx context.Context, kind OpKind, applicationIDs []uuid.UUID, params Params, actorID uuid.UUID) (string, error) {
	missing, err := c.store.ApplicationsExist(ctx, applicationIDs)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, id := range missing {
			ids[i] = id.String()
		}
		return "", apperrors.NewUnknownApplicationsError(ids)
	}

	opID := uuid.NewString()
	opCtx, cancel := context.WithCancel(context.Background())

	op := &operation{
		progress: Progress{
			OpID:      opID,
			Total:     len(applicationIDs),
			Status:    StatusPending,
			StartedAt: c.clock.Now(),
		},
		cancel: cancel,
	}

	c.mu.Lock()
	c.ops[opID] = op
	c.mu.Unlock()

	go c.run(opCtx, op, kind, applicationIDs, params, actorID)

	return opID, nil
}

func (c *BulkCoordinator) run(ctx context.Context, op *operation, kind OpKind, ids []uuid.UUID, params Params, actorID uuid.UUID) {
	op.mu.Lock()
	op.progress.Status = StatusRunning
	op.mu.Unlock()

	cancelled := false

	for _, id := range ids {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		err := c.applyOne(ctx, kind, id, params, actorID)

		op.mu.Lock()
		op.progress.Processed++
		if err != nil {
			op.progress.Failed++
			op.progress.Errors = append(op.progress.Errors, ItemError{ApplicationID: id.String(), Message: err.Error()})
		} else {
			op.progress.Successful++
		}
		op.mu.Unlock()
	}

	op.mu.Lock()
	defer op.mu.Unlock()
	now := c.clock.Now()
	op.progress.CompletedAt = &now
	switch {
	case cancelled:
		op.progress.Status = StatusCancelled
	case op.progress.Total == 0 || op.progress.Successful > 0:
		op.progress.Status = StatusCompleted
	default:
		op.progress.Status = StatusFailed
	}
}

// applyOne applies the per-item action: via WorkflowEngine for stage moves,
// or a status-only update that still writes a StatusHistoryEntry (spec.md
// §4.5), then plans and dispatches notifications for the resulting status
// change.
func (c *BulkCoordinator) applyOne(ctx context.Context, kind OpKind, applicationID uuid.UUID, params Params, actorID uuid.UUID) error {
	app, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	previousStatus := app.Status

	var newStatus string
	switch kind {
	case OpMoveToStage, OpApprove:
		t, err := c.engine.Advance(ctx, applicationID, params.TargetStageID, actorID, params.Reason)
		if err != nil {
			return err
		}
		stage, err := c.store.GetStage(ctx, t.StageID)
		if err != nil {
			return err
		}
		newStatus = stage.CanonicalStatus()
	case OpReject:
		newStatus = params.NewStatus
		if newStatus == "" {
			newStatus = "rejected"
		}
		if err := c.store.UpdateStatusOnly(ctx, applicationID, newStatus, params.Reason, actorID, c.clock.Now()); err != nil {
			return err
		}
	case OpSetStatus:
		newStatus = params.NewStatus
		if err := c.store.UpdateStatusOnly(ctx, applicationID, newStatus, params.Reason, actorID, c.clock.Now()); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown bulk op_kind: %s", kind)
	}

	c.dispatchNotifications(ctx, app, previousStatus, newStatus, actorID, params.Reason)
	return nil
}

func (c *BulkCoordinator) dispatchNotifications(ctx context.Context, app *models.Application, previousStatus, newStatus string, actorID uuid.UUID, reason string) {
	if c.dispatcher == nil {
		return
	}
	candidate, err := c.store.GetCandidate(ctx, app.CandidateID)
	if err != nil {
		return
	}
	jp, err := c.store.GetJobPosting(ctx, app.JobPostingID)
	if err != nil {
		return
	}
	// Hiring manager email resolution is thin CRUD around users, outside
	// this package's scope; bulk operations route through the same planner
	// as single transitions but without a wired user lookup, so the
	// hiring-manager recipient is simply omitted here.
	intents := c.planner(notify.TransitionEvent{
		ApplicationID:    app.ID,
		HistoryID:        uuid.New(),
		CandidateEmail:   candidate.Email,
		CandidateName:    candidate.FullName(),
		JobTitle:         jp.Title,
		PreviousStatus:   previousStatus,
		NewStatus:        newStatus,
		ChangedByDisplay: actorID.String(),
		ChangeReason:     reason,
		HistoryTimestamp: c.clock.Now(),
		Now:              c.clock.Now(),
	})
	for _, intent := range intents {
		if err := c.dispatcher.Dispatch(intent); err != nil {
			continue
		}
	}
}

// Cancel sets the cooperative cancellation flag; already-applied items
// remain applied, and the terminal status becomes cancelled (spec.md §4.5).
func (c *BulkCoordinator) Cancel(opID string) error {
	op, err := c.get(opID)
	if err != nil {
		return err
	}
	op.mu.Lock()
	status := op.progress.Status
	op.mu.Unlock()
	if status == StatusCompleted || status == StatusFailed || status == StatusCancelled {
		return apperrors.ErrOperationTerminal
	}
	op.cancel()
	return nil
}

// GetProgress returns the current progress snapshot with derived
// progress_percentage (spec.md §4.5).
func (c *BulkCoordinator) GetProgress(opID string) (Progress, error) {
	op, err := c.get(opID)
	if err != nil {
		return Progress{}, err
	}
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.progress, nil
}

// Cleanup removes a terminal operation's progress record; returns
// OperationInProgress otherwise (spec.md §4.5).
func (c *BulkCoordinator) Cleanup(opID string) error {
	op, err := c.get(opID)
	if err != nil {
		return err
	}
	op.mu.Lock()
	status := op.progress.Status
	op.mu.Unlock()
	if status != StatusCompleted && status != StatusFailed && status != StatusCancelled {
		return apperrors.ErrOperationInProgress
	}

	c.mu.Lock()
	delete(c.ops, opID)
	c.mu.Unlock()
	return nil
}

func (c *BulkCoordinator) get(opID string) (*operation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.ops[opID]
	if !ok {
		return nil, apperrors.ErrOperationNotFound
	}
	return op, nil
}
