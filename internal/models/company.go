/*
Package models - Workflow & SLA Engine Data Models

FILE: internal/models/company.go

DESCRIPTION:
    Defines the Company model: the tenant that owns job postings, candidates
    and users. Multi-tenant isolation is the caller's concern (out of scope
    per spec.md §1); CompanyID here is carried for data partitioning only.

DEVELOPER GUIDELINES:
    OK to modify: Add new fields (settings, branding, etc.)
    DO NOT modify: Activation/deactivation hook behavior without a migration.
*/
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company represents a tenant/employer. Users, job postings and candidates
// belong to exactly one company.
type Company struct {
	BaseModel
	Name          string     `gorm:"type:varchar(255);not null" json:"name"`
	Address       string     `gorm:"type:varchar(255)" json:"address,omitempty"`
	Phone         string     `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Email         string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Website       string     `gorm:"type:varchar(255)" json:"website,omitempty"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	Users         []User     `gorm:"foreignKey:CompanyID" json:"users,omitempty"`
	CreatedBy     *uuid.UUID `gorm:"type:text" json:"created_by,omitempty"`
	UpdatedBy     *uuid.UUID `gorm:"type:text" json:"updated_by,omitempty"`
	CreatedByUser *User      `gorm:"foreignKey:CreatedBy" json:"created_by_user,omitempty"`
	UpdatedByUser *User      `gorm:"foreignKey:UpdatedBy" json:"updated_by_user,omitempty"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// TableName specifies the table name
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate hook to generate UUID and set ActivatedAt for new active companies.
func (c *Company) BeforeCreate(tx *gorm.DB) (err error) {
	// Generate UUID if not set (important since BaseModel's hook is overridden)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.IsActive && c.ActivatedAt == nil {
		now := time.Now()
		c.ActivatedAt = &now
	}
	return
}

// BeforeUpdate hook to manage ActivatedAt/DeactivatedAt.
func (c *Company) BeforeUpdate(tx *gorm.DB) (err error) {
	if c.IsActive && c.ActivatedAt == nil {
		now := time.Now()
		c.ActivatedAt = &now
		c.DeactivatedAt = nil
	} else if !c.IsActive && c.DeactivatedAt == nil {
		now := time.Now()
		c.DeactivatedAt = &now
	}
	return
}
