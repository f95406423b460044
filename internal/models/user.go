/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/user.go

DESCRIPTION:
    Defines the User model: the actor and notification recipient the
    workflow engine resolves against (who advanced an application, who is
    the escalation assignee, who is the hiring manager). Authentication and
    authorization are out of scope (spec.md §1) and are not modeled here —
    this is a thin identity/display record only.

DEVELOPER GUIDELINES:
    OK to modify: Add new display fields.
    DO NOT modify: Email uniqueness constraint without a migration.
*/
package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a person the workflow engine can address: an actor who
// advances applications, an escalation assignee, or a notification
// recipient.
type User struct {
	BaseModel
	Email       string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName    string     `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	CompanyID   uuid.UUID  `gorm:"type:text;not null" json:"company_id"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Department string `gorm:"type:varchar(100)" json:"department,omitempty"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName specifies the table name.
func (User) TableName() string {
	return "users"
}

// Validate validates user data.
func (u *User) Validate() error {
	var validationErrors []string

	if !regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`).MatchString(u.Email) {
		validationErrors = append(validationErrors, "invalid email format")
	}
	if strings.TrimSpace(u.FullName) == "" {
		validationErrors = append(validationErrors, "full name is required")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, "; "))
	}
	return nil
}

// BeforeSave hook to validate user data before saving.
func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	return u.Validate()
}

// ToResponseDTO converts the User model to a map suitable for API response.
func (u *User) ToResponseDTO() map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID.String(),
		"email":         u.Email,
		"full_name":     u.FullName,
		"is_active":     u.IsActive,
		"company_id":    u.CompanyID,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
		"last_login_at": u.LastLoginAt,
	}
}
