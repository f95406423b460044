package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/engine"
	"workflowengine/internal/workflow/store"
)

// ApplicationService is thin CRUD around the Application record itself;
// pipeline position and status transitions are owned by the
// WorkflowEngine/Store, not here (spec.md §4.2's "Application.Status is a
// denormalized read-optimization" design note).
type ApplicationService struct {
	db     *gorm.DB
	store  store.Store
	engine *engine.WorkflowEngine
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(db *gorm.DB, s store.Store, e *engine.WorkflowEngine) *ApplicationService {
	return &ApplicationService{db: db, store: s, engine: e}
}

// CreateApplicationDTO contains data for creating an application.
type CreateApplicationDTO struct {
	CompanyID    uuid.UUID
	CandidateID  uuid.UUID
	JobPostingID uuid.UUID
	ActorID      uuid.UUID
}

// ApplicationFilters contains filters for listing applications.
type ApplicationFilters struct {
	CompanyID    uuid.UUID
	JobPostingID *uuid.UUID
	CandidateID  *uuid.UUID
	Status       string
	Search       string
	Page         int
	Limit        int
}

// PaginatedApplications contains paginated application results.
type PaginatedApplications struct {
	Data       []models.Application `json:"data"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// ApplicationStats contains application counts grouped by denormalized
// status, for a job posting.
type ApplicationStats struct {
	TotalApplications int64            `json:"total_applications"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// Create creates an application record and enters it into the job
// posting's first pipeline stage (order_index 1) via the WorkflowEngine. If
// that advance fails, the new application record is deleted again.
func (s *ApplicationService) Create(ctx context.Context, dto CreateApplicationDTO) (*models.Application, error) {
	var jobPosting models.JobPosting
	if err := s.db.First(&jobPosting, "id = ?", dto.JobPostingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("job posting not found")
		}
		return nil, err
	}
	if jobPosting.Status != models.JobPostingStatusPublished {
		return nil, errors.New("job posting is not accepting applications")
	}

	var candidate models.Candidate
	if err := s.db.First(&candidate, "id = ?", dto.CandidateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("candidate not found")
		}
		return nil, err
	}

	var existing models.Application
	err := s.db.Where("candidate_id = ? AND job_posting_id = ?", dto.CandidateID, dto.JobPostingID).First(&existing).Error
	if err == nil {
		return nil, errors.New("candidate has already applied for this position")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	stages, err := s.store.ListStagesForJob(ctx, dto.JobPostingID, false)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, errors.New("job posting has no pipeline stages configured")
	}
	firstStage := stages[0]
	for _, st := range stages {
		if st.OrderIndex < firstStage.OrderIndex {
			firstStage = st
		}
	}

	application := &models.Application{
		CompanyID:    dto.CompanyID,
		CandidateID:  dto.CandidateID,
		JobPostingID: dto.JobPostingID,
		Status:       "applied",
	}
	if err := s.db.Create(application).Error; err != nil {
		return nil, err
	}

	if _, err := s.engine.Advance(ctx, application.ID, firstStage.ID, dto.ActorID, "Application submitted"); err != nil {
		s.db.Unscoped().Delete(application)
		return nil, err
	}

	return s.GetByID(application.ID)
}

// GetByID retrieves an application by ID with related data.
func (s *ApplicationService) GetByID(id uuid.UUID) (*models.Application, error) {
	var application models.Application
	err := s.db.Preload("Candidate").Preload("JobPosting").First(&application, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("application not found")
		}
		return nil, err
	}
	return &application, nil
}

// Delete removes an application.
func (s *ApplicationService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Application{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("application not found")
	}
	return nil
}

// List retrieves applications with filters and pagination.
func (s *ApplicationService) List(filters ApplicationFilters) (*PaginatedApplications, error) {
	query := s.db.Model(&models.Application{}).Where("company_id = ?", filters.CompanyID)

	if filters.JobPostingID != nil {
		query = query.Where("job_posting_id = ?", *filters.JobPostingID)
	}
	if filters.CandidateID != nil {
		query = query.Where("candidate_id = ?", *filters.CandidateID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		query = query.Joins("LEFT JOIN candidates ON candidates.id = applications.candidate_id").
			Where("candidates.first_name LIKE ? OR candidates.last_name LIKE ? OR candidates.email LIKE ?",
				"%"+filters.Search+"%", "%"+filters.Search+"%", "%"+filters.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	offset := (filters.Page - 1) * filters.Limit
	query = query.Offset(offset).Limit(filters.Limit).Order("applied_at DESC")

	var applications []models.Application
	if err := query.Preload("Candidate").Preload("JobPosting").Find(&applications).Error; err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.Limit
	if int(total)%filters.Limit > 0 {
		totalPages++
	}

	return &PaginatedApplications{
		Data:       applications,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetStats returns application counts grouped by status for a job posting.
func (s *ApplicationService) GetStats(jobPostingID uuid.UUID) (*ApplicationStats, error) {
	stats := &ApplicationStats{ByStatus: make(map[string]int64)}

	if err := s.db.Model(&models.Application{}).
		Where("job_posting_id = ?", jobPostingID).
		Count(&stats.TotalApplications).Error; err != nil {
		return nil, err
	}

	var statusResults []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.Application{}).
		Select("status, count(*) as count").
		Where("job_posting_id = ?", jobPostingID).
		Group("status").
		Scan(&statusResults).Error; err != nil {
		return nil, err
	}
	for _, r := range statusResults {
		stats.ByStatus[r.Status] = r.Count
	}

	return stats, nil
}

// GetByJobPostingAndCandidate retrieves an application by job posting and
// candidate, or nil if none exists.
func (s *ApplicationService) GetByJobPostingAndCandidate(jobPostingID, candidateID uuid.UUID) (*models.Application, error) {
	var application models.Application
	err := s.db.Where("job_posting_id = ? AND candidate_id = ?", jobPostingID, candidateID).
		Preload("Candidate").
		Preload("JobPosting").
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}
