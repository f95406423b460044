// Package database handles connection setup and schema migration for the
// workflow engine's GORM store.
package database

import (
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

// Migrate runs GORM AutoMigrate over the full model set. Order matters:
// referenced tables (Company, User) before their foreign-key dependents.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Company{},
		&models.User{},
		&models.JobPosting{},
		&models.Candidate{},
		&models.Application{},
		&models.WorkflowStage{},
		&models.StageTransition{},
		&models.Escalation{},
		&models.StatusHistoryEntry{},
		&models.Notification{},
		&models.AuditLog{},
	)
}
