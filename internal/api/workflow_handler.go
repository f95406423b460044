package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/audit"
	"workflowengine/internal/workflow/bulk"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/escalation"
	"workflowengine/internal/workflow/slamonitor"
)

// WorkflowHandler exposes the engine's stage-transition, escalation, and
// bulk-operation surface (spec.md §4's "Exposed" operations) over HTTP. It
// never interprets auth; it takes actor_id as given.
type WorkflowHandler struct {
	engine     *engine.WorkflowEngine
	escalation *escalation.EscalationService
	monitor    *slamonitor.SLAMonitor
	bulk       *bulk.BulkCoordinator
	audit      *audit.Logger
}

func NewWorkflowHandler(e *engine.WorkflowEngine, esc *escalation.EscalationService, mon *slamonitor.SLAMonitor, bc *bulk.BulkCoordinator, al *audit.Logger) *WorkflowHandler {
	return &WorkflowHandler{engine: e, escalation: esc, monitor: mon, bulk: bc, audit: al}
}

func (h *WorkflowHandler) RegisterRoutes(rg *gin.RouterGroup) {
	applications := rg.Group("/applications/:id")
	applications.POST("/advance", h.Advance)
	applications.GET("/current-transition", h.CurrentTransition)
	applications.GET("/timeline", h.Timeline)

	rg.GET("/job-postings/:id/stages/:stageName/applications", h.ApplicationsInStage)

	escalations := rg.Group("/escalations")
	escalations.POST("", h.Escalate)
	escalations.POST("/:id/resolve", h.ResolveEscalation)
	escalations.GET("", h.ListForUser)

	rg.GET("/sla/overdue", h.CheckOverdue)

	bulkGroup := rg.Group("/bulk")
	bulkGroup.POST("", h.BulkSubmit)
	bulkGroup.GET("/:opId", h.BulkProgress)
	bulkGroup.POST("/:opId/cancel", h.BulkCancel)
	bulkGroup.DELETE("/:opId", h.BulkCleanup)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// Advance moves an application to a target stage (spec.md §4.2).
func (h *WorkflowHandler) Advance(c *gin.Context) {
	applicationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		TargetStageID uuid.UUID `json:"target_stage_id" binding:"required"`
		ActorID       uuid.UUID `json:"actor_id" binding:"required"`
		Notes         string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transition, err := h.engine.Advance(c.Request.Context(), applicationID, body.TargetStageID, body.ActorID, body.Notes)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.audit.Log(audit.Entry{
		EventType:     models.EventAdvance,
		UserID:        &body.ActorID,
		ApplicationID: &applicationID,
		Success:       err == nil,
		FailureReason: nilIfEmpty(reason),
		Metadata:      map[string]interface{}{"target_stage_id": body.TargetStageID},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, transition)
}

func (h *WorkflowHandler) CurrentTransition(c *gin.Context) {
	applicationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	transition, err := h.engine.CurrentTransition(c.Request.Context(), applicationID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, transition)
}

func (h *WorkflowHandler) Timeline(c *gin.Context) {
	applicationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.engine.Timeline(c.Request.Context(), applicationID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *WorkflowHandler) ApplicationsInStage(c *gin.Context) {
	jobPostingID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	stageName := c.Param("stageName")
	applications, err := h.engine.ApplicationsInStage(c.Request.Context(), jobPostingID, stageName)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

// Escalate records an SLA breach on a transition (spec.md §4.4).
func (h *WorkflowHandler) Escalate(c *gin.Context) {
	var body struct {
		StageTransitionID uuid.UUID                 `json:"stage_transition_id" binding:"required"`
		Severity          models.EscalationSeverity `json:"severity" binding:"required"`
		Reason            string                    `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	esc, err := h.escalation.Escalate(c.Request.Context(), body.StageTransitionID, body.Severity, body.Reason)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.audit.Log(audit.Entry{
		EventType:     models.EventEscalate,
		Success:       err == nil,
		FailureReason: nilIfEmpty(reason),
		Metadata:      map[string]interface{}{"stage_transition_id": body.StageTransitionID, "severity": body.Severity},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, esc)
}

func (h *WorkflowHandler) ResolveEscalation(c *gin.Context) {
	escalationID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		ResolverID uuid.UUID `json:"resolver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	esc, err := h.escalation.Resolve(c.Request.Context(), escalationID, body.ResolverID)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.audit.Log(audit.Entry{
		EventType:     models.EventResolve,
		UserID:        &body.ResolverID,
		Success:       err == nil,
		FailureReason: nilIfEmpty(reason),
		Metadata:      map[string]interface{}{"escalation_id": escalationID},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, esc)
}

func (h *WorkflowHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	views, err := h.escalation.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CheckOverdue lists the open, not-yet-escalated transitions whose SLA
// deadline has passed. It is read-only: nothing is escalated here; that is
// left to the monitor's own scan.
func (h *WorkflowHandler) CheckOverdue(c *gin.Context) {
	transitions, err := h.monitor.CheckOverdue(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, transitions)
}

// BulkSubmit submits a bulk stage transition operation (spec.md §4.5).
func (h *WorkflowHandler) BulkSubmit(c *gin.Context) {
	var body struct {
		Kind           bulk.OpKind `json:"kind" binding:"required"`
		ApplicationIDs []uuid.UUID `json:"application_ids" binding:"required"`
		ActorID        uuid.UUID   `json:"actor_id" binding:"required"`
		TargetStageID  *uuid.UUID  `json:"target_stage_id"`
		NewStatus      string      `json:"new_status"`
		Reason         string      `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params := bulk.Params{NewStatus: body.NewStatus, Reason: body.Reason}
	if body.TargetStageID != nil {
		params.TargetStageID = *body.TargetStageID
	}

	opID, err := h.bulk.Submit(c.Request.Context(), body.Kind, body.ApplicationIDs, params, body.ActorID)
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	h.audit.Log(audit.Entry{
		EventType:     models.EventBulkSubmit,
		UserID:        &body.ActorID,
		Success:       err == nil,
		FailureReason: nilIfEmpty(reason),
		Metadata:      map[string]interface{}{"kind": body.Kind, "count": len(body.ApplicationIDs)},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"operation_id": opID})
}

func (h *WorkflowHandler) BulkProgress(c *gin.Context) {
	progress, err := h.bulk.GetProgress(c.Param("opId"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *WorkflowHandler) BulkCancel(c *gin.Context) {
	opID := c.Param("opId")
	err := h.bulk.Cancel(opID)
	h.audit.Log(audit.Entry{
		EventType:     models.EventBulkCancel,
		Success:       err == nil,
		FailureReason: errString(err),
		Metadata:      map[string]interface{}{"operation_id": opID},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkflowHandler) BulkCleanup(c *gin.Context) {
	opID := c.Param("opId")
	err := h.bulk.Cleanup(opID)
	h.audit.Log(audit.Entry{
		EventType:     models.EventBulkCleanup,
		Success:       err == nil,
		FailureReason: errString(err),
		Metadata:      map[string]interface{}{"operation_id": opID},
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
