// Command api starts the Workflow & SLA Engine's HTTP server: it wires the
// GORM store, workflow engine, escalation service, SLA monitor, bulk
// coordinator, and notification dispatcher, then serves the Gin router
// until an interrupt signal triggers a graceful shutdown.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"workflowengine/internal/api"
	"workflowengine/internal/config"
	"workflowengine/internal/database"
	"workflowengine/internal/logger"
	"workflowengine/internal/workflow/audit"
	"workflowengine/internal/workflow/bulk"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/escalation"
	"workflowengine/internal/workflow/notify"
	"workflowengine/internal/workflow/registry"
	"workflowengine/internal/workflow/slamonitor"
	"workflowengine/internal/workflow/store"
)

func main() {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("failed to load application configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Env)

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.DBDriver)
	if err != nil {
		appLogger.Fatalf("failed to connect to database: %v", err)
	}

	if cfg.Env == "development" {
		if err := database.Migrate(db); err != nil {
			appLogger.Warnf("migration failed: %v", err)
		}
	}

	gormStore := store.NewGormStore(db)
	systemClock := clock.SystemClock{}
	stageRegistry := registry.NewStageRegistry(gormStore, cfg.Workflow.DefaultStageSLAHours)
	workflowEngine := engine.NewWorkflowEngine(gormStore, systemClock)
	escalationService := escalation.NewEscalationService(gormStore, systemClock)
	dispatcher := notify.NewLogDispatcher(db, appLogger)
	bulkCoordinator := bulk.NewBulkCoordinator(gormStore, workflowEngine, systemClock, dispatcher)
	auditLogger := audit.NewLogger(db, appLogger)

	monitorCfg := slamonitor.Config{
		ScanInterval:             cfg.Workflow.ScanInterval(),
		ScanBackoffOnError:       cfg.Workflow.ScanBackoff(),
		SeverityWarningCapHours:  float64(cfg.Workflow.SeverityWarningCapHours),
		SeverityCriticalCapHours: float64(cfg.Workflow.SeverityCriticalCapHours),
	}
	slaMonitor := slamonitor.NewSLAMonitor(gormStore, systemClock, escalationService, monitorCfg, appLogger)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	slaMonitor.Start(monitorCtx)

	router := setupRouter(cfg, db, appLogger, gormStore, workflowEngine, escalationService, slaMonitor, bulkCoordinator, stageRegistry, auditLogger)

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Infof("starting server on port %d in %s mode", cfg.ServerPort, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")

	stopMonitor()
	slaMonitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatalf("server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("server exited properly")
}

func setupRouter(
	cfg *config.AppConfig,
	db *gorm.DB,
	appLogger *logrus.Logger,
	s store.Store,
	e *engine.WorkflowEngine,
	esc *escalation.EscalationService,
	mon *slamonitor.SLAMonitor,
	bc *bulk.BulkCoordinator,
	reg *registry.StageRegistry,
	al *audit.Logger,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins(cfg.CORSAllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(logger.GinLogger(appLogger))
	router.Use(gin.Recovery())

	healthHandler := api.NewHealthHandler(db)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadyCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	apiRouter := api.NewRouter(db, cfg, s, e, esc, mon, bc, reg, al)
	apiRouter.Setup(router.Group("/api/v1"))

	return router
}

func corsOrigins(raw string) []string {
	if raw == "" {
		return []string{"http://localhost:3000", "http://localhost:5173"}
	}
	origins := []string{}
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				origins = append(origins, raw[start:i])
			}
			start = i + 1
		}
	}
	return origins
}
