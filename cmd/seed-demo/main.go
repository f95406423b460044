// Command seed-demo populates a fresh database with a demo company, a
// hiring manager, a published job posting with the default stage pipeline,
// and a handful of candidates applied and advanced partway through it — so
// the API has something to query immediately after a clone.
//
// USAGE:
//
//	go run cmd/seed-demo/main.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"workflowengine/internal/config"
	"workflowengine/internal/database"
	"workflowengine/internal/models"
	"workflowengine/internal/services"
	"workflowengine/internal/workflow/clock"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/registry"
	"workflowengine/internal/workflow/store"
)

func main() {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.DBDriver)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	company := &models.Company{Name: "Acme Hiring Co", Email: "hr@acme.example", IsActive: true}
	if err := db.Create(company).Error; err != nil {
		log.Fatalf("failed to create company: %v", err)
	}

	hiringManager := &models.User{Email: "manager@acme.com", FullName: "Dana Park", CompanyID: company.ID, IsActive: true}
	if err := db.Create(hiringManager).Error; err != nil {
		log.Fatalf("failed to create hiring manager: %v", err)
	}

	gormStore := store.NewGormStore(db)
	systemClock := clock.SystemClock{}
	stageRegistry := registry.NewStageRegistry(gormStore, cfg.Workflow.DefaultStageSLAHours)
	workflowEngine := engine.NewWorkflowEngine(gormStore, systemClock)

	jobPostingService := services.NewJobPostingService(db, stageRegistry)
	posting, err := jobPostingService.Create(services.CreateJobPostingDTO{
		CompanyID:        company.ID,
		Title:            "Senior Backend Engineer",
		Description:      "Own the workflow engine's storage layer.",
		HiringManagerID:  &hiringManager.ID,
		CreatedByUserID:  &hiringManager.ID,
		UseDefaultStages: true,
	})
	if err != nil {
		log.Fatalf("failed to create job posting: %v", err)
	}
	if _, err := jobPostingService.Publish(posting.ID); err != nil {
		log.Fatalf("failed to publish job posting: %v", err)
	}

	candidateService := services.NewCandidateService(db)
	applicationService := services.NewApplicationService(db, gormStore, workflowEngine)

	demoCandidates := []services.CreateCandidateDTO{
		{CompanyID: company.ID, FirstName: "Riley", LastName: "Chen", Email: "riley.chen@example.com"},
		{CompanyID: company.ID, FirstName: "Sam", LastName: "Okafor", Email: "sam.okafor@example.com"},
		{CompanyID: company.ID, FirstName: "Jordan", LastName: "Ibarra", Email: "jordan.ibarra@example.com"},
	}

	ctx := context.Background()
	for i, dto := range demoCandidates {
		candidate, err := candidateService.Create(dto)
		if err != nil {
			log.Fatalf("failed to create candidate %s: %v", dto.Email, err)
		}

		application, err := applicationService.Create(ctx, services.CreateApplicationDTO{
			CompanyID:    company.ID,
			CandidateID:  candidate.ID,
			JobPostingID: posting.ID,
			ActorID:      hiringManager.ID,
		})
		if err != nil {
			log.Fatalf("failed to create application for %s: %v", candidate.Email, err)
		}

		// Advance the first candidate one stage further, to exercise a
		// second transition.
		if i == 0 {
			stages, err := gormStore.ListStagesForJob(ctx, posting.ID, false)
			if err != nil {
				log.Fatalf("failed to list stages: %v", err)
			}
			if len(stages) > 1 {
				advanceToSecondStage(ctx, workflowEngine, application.ID, stages, hiringManager.ID)
			}
		}
	}

	fmt.Printf("seeded company %s with job posting %s and %d applications\n", company.ID, posting.ID, len(demoCandidates))
}

func advanceToSecondStage(ctx context.Context, e *engine.WorkflowEngine, applicationID uuid.UUID, stages []models.WorkflowStage, actorID uuid.UUID) {
	second := stages[0]
	for _, s := range stages {
		if s.OrderIndex == 2 {
			second = s
			break
		}
	}
	if _, err := e.Advance(ctx, applicationID, second.ID, actorID, "Passed initial screening"); err != nil {
		log.Printf("warning: failed to advance demo application: %v", err)
	}
}
