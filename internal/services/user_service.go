// Package services holds thin CRUD layers around ambient entities
// (companies, users, candidates, job postings) the workflow engine
// addresses but does not itself own the lifecycle of. Authentication and
// authorization are out of scope (spec.md §1); these are identity/display
// records only.
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

// CreateUserRequest represents a request to create a new user.
type CreateUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	FullName   string `json:"full_name" binding:"required"`
	Department string `json:"department"`
}

// UpdateUserRequest represents a request to update a user.
type UpdateUserRequest struct {
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

// UserService manages users within a company.
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUsersByCompany returns all users in a company.
func (s *UserService) GetUsersByCompany(companyID uuid.UUID) ([]map[string]interface{}, error) {
	var users []models.User
	if err := s.db.Where("company_id = ?", companyID).Find(&users).Error; err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, len(users))
	for i, user := range users {
		result[i] = user.ToResponseDTO()
	}
	return result, nil
}

// CreateUser creates a new user in the given company.
func (s *UserService) CreateUser(companyID uuid.UUID, req CreateUserRequest) (map[string]interface{}, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("a user with this email already exists")
	}

	user := &models.User{
		Email:      req.Email,
		FullName:   req.FullName,
		Department: req.Department,
		IsActive:   true,
		CompanyID:  companyID,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return user.ToResponseDTO(), nil
}

// UpdateUser updates a user's display fields.
func (s *UserService) UpdateUser(userID, companyID uuid.UUID, req UpdateUserRequest) (map[string]interface{}, error) {
	user, err := s.findInCompany(userID, companyID)
	if err != nil {
		return nil, err
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Department != "" {
		user.Department = req.Department
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user.ToResponseDTO(), nil
}

// DeleteUser deletes a user (soft delete via GORM).
func (s *UserService) DeleteUser(adminID, userID, companyID uuid.UUID) error {
	if adminID == userID {
		return errors.New("cannot delete yourself")
	}
	user, err := s.findInCompany(userID, companyID)
	if err != nil {
		return err
	}
	return s.db.Delete(user).Error
}

// ToggleUserActive toggles a user's active status.
func (s *UserService) ToggleUserActive(adminID, userID, companyID uuid.UUID) (map[string]interface{}, error) {
	if adminID == userID {
		return nil, errors.New("cannot deactivate yourself")
	}
	user, err := s.findInCompany(userID, companyID)
	if err != nil {
		return nil, err
	}

	user.IsActive = !user.IsActive
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user.ToResponseDTO(), nil
}

func (s *UserService) findInCompany(userID, companyID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	if user.CompanyID != companyID {
		return nil, errors.New("user not found in your company")
	}
	return &user, nil
}
