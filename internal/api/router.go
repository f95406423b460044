// Package api exposes a minimal Gin HTTP surface over the workflow engine
// for completeness; routing/authn itself stays out of scope (spec.md §1).
package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"workflowengine/internal/config"
	"workflowengine/internal/services"
	"workflowengine/internal/workflow/audit"
	"workflowengine/internal/workflow/bulk"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/escalation"
	"workflowengine/internal/workflow/registry"
	"workflowengine/internal/workflow/slamonitor"
	"workflowengine/internal/workflow/store"
)

// Router wires handlers onto routes. It takes already-constructed
// workflow-engine components (built in cmd/api/main.go) rather than
// constructing them itself, since they're shared with the SLA monitor's
// background loop.
type Router struct {
	db        *gorm.DB
	appConfig *config.AppConfig

	store      store.Store
	engine     *engine.WorkflowEngine
	escalation *escalation.EscalationService
	monitor    *slamonitor.SLAMonitor
	bulk       *bulk.BulkCoordinator
	registry   *registry.StageRegistry
	audit      *audit.Logger
}

// NewRouter creates a new router.
func NewRouter(
	db *gorm.DB,
	appConfig *config.AppConfig,
	s store.Store,
	e *engine.WorkflowEngine,
	esc *escalation.EscalationService,
	mon *slamonitor.SLAMonitor,
	bc *bulk.BulkCoordinator,
	reg *registry.StageRegistry,
	al *audit.Logger,
) *Router {
	return &Router{
		db:         db,
		appConfig:  appConfig,
		store:      s,
		engine:     e,
		escalation: esc,
		monitor:    mon,
		bulk:       bc,
		registry:   reg,
		audit:      al,
	}
}

// Setup configures all routes under the given group.
func (r *Router) Setup(rg *gin.RouterGroup) {
	if r.appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	userService := services.NewUserService(r.db)
	userHandler := NewUserHandler(userService)
	userHandler.RegisterRoutes(rg)

	candidateService := services.NewCandidateService(r.db)
	candidateHandler := NewCandidateHandler(candidateService)
	candidateHandler.RegisterRoutes(rg)

	jobPostingService := services.NewJobPostingService(r.db, r.registry)
	jobPostingHandler := NewJobPostingHandler(jobPostingService)
	jobPostingHandler.RegisterRoutes(rg)

	applicationService := services.NewApplicationService(r.db, r.store, r.engine)
	applicationHandler := NewApplicationHandler(applicationService)
	applicationHandler.RegisterRoutes(rg)

	workflowHandler := NewWorkflowHandler(r.engine, r.escalation, r.monitor, r.bulk, r.audit)
	workflowHandler.RegisterRoutes(rg)

	auditHandler := NewAuditHandler(r.db)
	auditHandler.RegisterRoutes(rg)
}
