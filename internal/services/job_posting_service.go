package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workflowengine/internal/models"
	"workflowengine/internal/workflow/registry"
)

// JobPostingService provides business logic for job postings: CRUD and the
// draft -> published -> closed/filled lifecycle. Stage pipeline setup
// delegates to the registry.StageRegistry (spec.md §4.7 default stages on
// creation).
type JobPostingService struct {
	db       *gorm.DB
	registry *registry.StageRegistry
}

// NewJobPostingService creates a new JobPostingService.
func NewJobPostingService(db *gorm.DB, reg *registry.StageRegistry) *JobPostingService {
	return &JobPostingService{db: db, registry: reg}
}

// CreateJobPostingDTO contains data for creating a job posting.
type CreateJobPostingDTO struct {
	CompanyID       uuid.UUID
	Title           string
	Description     string
	HiringManagerID *uuid.UUID
	CreatedByUserID *uuid.UUID
	// UseDefaultStages, when true, seeds the posting's pipeline with the six
	// standard stages (spec.md §4.7). Its zero value is false; the HTTP
	// handler sets it to true unless the request says otherwise.
	UseDefaultStages bool
}

// UpdateJobPostingDTO contains data for updating a job posting.
type UpdateJobPostingDTO struct {
	Title           *string
	Description     *string
	HiringManagerID *uuid.UUID
}

// JobPostingFilters contains filters for listing job postings.
type JobPostingFilters struct {
	CompanyID uuid.UUID
	Status    string
	Search    string
	Page      int
	Limit     int
}

// JobPostingStats contains derived statistics for a job posting: counts of
// its applications grouped by their current (denormalized) Application.Status,
// rather than by interview/offer modules the engine does not own.
type JobPostingStats struct {
	PostingID           uuid.UUID      `json:"posting_id"`
	TotalApplications   int            `json:"total_applications"`
	ApplicationsByStage map[string]int `json:"applications_by_status"`
}

// PaginatedJobPostings contains paginated job posting results.
type PaginatedJobPostings struct {
	Data       []models.JobPosting `json:"data"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// Create creates a new job posting, optionally seeding its default stage
// pipeline.
func (s *JobPostingService) Create(ctxDTO CreateJobPostingDTO) (*models.JobPosting, error) {
	if ctxDTO.Title == "" {
		return nil, errors.New("title is required")
	}
	if ctxDTO.Description == "" {
		return nil, errors.New("description is required")
	}

	posting := &models.JobPosting{
		CompanyID:       ctxDTO.CompanyID,
		Title:           ctxDTO.Title,
		Description:     ctxDTO.Description,
		HiringManagerID: ctxDTO.HiringManagerID,
		CreatedByID:     ctxDTO.CreatedByUserID,
		Status:          models.JobPostingStatusDraft,
	}

	if err := s.db.Create(posting).Error; err != nil {
		return nil, err
	}

	if ctxDTO.UseDefaultStages && s.registry != nil {
		if _, err := s.registry.CreateDefaults(context.Background(), posting.ID); err != nil {
			return nil, err
		}
	}

	return posting, nil
}

// GetByID retrieves a job posting by ID.
func (s *JobPostingService) GetByID(id uuid.UUID) (*models.JobPosting, error) {
	var posting models.JobPosting
	err := s.db.Preload("HiringManager").Preload("CreatedBy").First(&posting, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("job posting not found")
		}
		return nil, err
	}
	return &posting, nil
}

// Update updates a job posting's editable fields.
func (s *JobPostingService) Update(id uuid.UUID, dto UpdateJobPostingDTO) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if posting.Status == models.JobPostingStatusClosed || posting.Status == models.JobPostingStatusFilled {
		return nil, errors.New("cannot update closed or filled job posting")
	}

	if dto.Title != nil {
		posting.Title = *dto.Title
	}
	if dto.Description != nil {
		posting.Description = *dto.Description
	}
	if dto.HiringManagerID != nil {
		posting.HiringManagerID = dto.HiringManagerID
	}

	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// Delete soft-deletes a job posting.
func (s *JobPostingService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.JobPosting{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("job posting not found")
	}
	return nil
}

// List retrieves job postings with filters and pagination.
func (s *JobPostingService) List(filters JobPostingFilters) (*PaginatedJobPostings, error) {
	query := s.db.Model(&models.JobPosting{}).Where("company_id = ?", filters.CompanyID)

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		searchTerm := "%" + filters.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", searchTerm, searchTerm)
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
	query = query.Offset(offset).Limit(filters.Limit).Order("created_at DESC")

	var postings []models.JobPosting
	if err := query.Preload("HiringManager").Find(&postings).Error; err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.Limit
	if int(total)%filters.Limit > 0 {
		totalPages++
	}

	return &PaginatedJobPostings{
		Data:       postings,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.Limit,
		TotalPages: totalPages,
	}, nil
}

// Publish publishes a job posting, making it live.
func (s *JobPostingService) Publish(id uuid.UUID) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if posting.Title == "" || posting.Description == "" {
		return nil, errors.New("job posting is not ready to publish: title and description are required")
	}

	now := time.Now()
	posting.Status = models.JobPostingStatusPublished
	posting.PublishedAt = &now

	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// Pause pauses a published job posting.
func (s *JobPostingService) Pause(id uuid.UUID) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if posting.Status != models.JobPostingStatusPublished {
		return nil, errors.New("can only pause published job postings")
	}
	posting.Status = models.JobPostingStatusPaused
	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// Resume resumes a paused job posting.
func (s *JobPostingService) Resume(id uuid.UUID) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if posting.Status != models.JobPostingStatusPaused {
		return nil, errors.New("can only resume paused job postings")
	}
	posting.Status = models.JobPostingStatusPublished
	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// Close closes a job posting.
func (s *JobPostingService) Close(id uuid.UUID) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if posting.Status == models.JobPostingStatusClosed || posting.Status == models.JobPostingStatusFilled {
		return nil, errors.New("job posting is already closed")
	}
	now := time.Now()
	posting.Status = models.JobPostingStatusClosed
	posting.ClosedAt = &now
	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// MarkAsFilled marks a job posting as filled.
func (s *JobPostingService) MarkAsFilled(id uuid.UUID) (*models.JobPosting, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	posting.Status = models.JobPostingStatusFilled
	posting.ClosedAt = &now
	if err := s.db.Save(posting).Error; err != nil {
		return nil, err
	}
	return posting, nil
}

// GetStats returns application-count statistics for a job posting, grouped
// by the denormalized Application.Status (spec.md §4.2 derived read).
func (s *JobPostingService) GetStats(id uuid.UUID) (*JobPostingStats, error) {
	posting, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	stats := &JobPostingStats{
		PostingID:           posting.ID,
		ApplicationsByStage: make(map[string]int),
	}

	var totalApps int64
	s.db.Model(&models.Application{}).Where("job_posting_id = ?", id).Count(&totalApps)
	stats.TotalApplications = int(totalApps)

	var statusCounts []struct {
		Status string
		Count  int
	}
	s.db.Model(&models.Application{}).
		Select("status, count(*) as count").
		Where("job_posting_id = ?", id).
		Group("status").
		Scan(&statusCounts)

	for _, sc := range statusCounts {
		stats.ApplicationsByStage[sc.Status] = sc.Count
	}

	return stats, nil
}

// GetPublicPostings returns published job postings for a public job board.
func (s *JobPostingService) GetPublicPostings(companyID uuid.UUID, filters JobPostingFilters) (*PaginatedJobPostings, error) {
	filters.CompanyID = companyID
	filters.Status = string(models.JobPostingStatusPublished)
	return s.List(filters)
}
