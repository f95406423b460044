package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workflowengine/internal/models"
)

// CandidateService provides business logic for candidates: the people
// applications belong to. The workflow engine itself only reads candidate
// email/display name (notification recipients); creation and search stay
// thin CRUD here.
type CandidateService struct {
	db *gorm.DB
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(db *gorm.DB) *CandidateService {
	return &CandidateService{db: db}
}

// CreateCandidateDTO contains data for creating a candidate.
type CreateCandidateDTO struct {
	CompanyID uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// UpdateCandidateDTO contains data for updating a candidate.
type UpdateCandidateDTO struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Status    *models.CandidateStatus
}

// CandidateFilters contains filters for listing candidates.
type CandidateFilters struct {
	CompanyID uuid.UUID
	Status    string
	Search    string
	Page      int
	Limit     int
}

// PaginatedCandidates contains paginated candidate results.
type PaginatedCandidates struct {
	Data       []models.Candidate `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// Create creates a new candidate.
func (s *CandidateService) Create(dto CreateCandidateDTO) (*models.Candidate, error) {
	if dto.FirstName == "" {
		return nil, errors.New("first name is required")
	}
	if dto.LastName == "" {
		return nil, errors.New("last name is required")
	}
	if dto.Email == "" {
		return nil, errors.New("email is required")
	}

	var existing models.Candidate
	err := s.db.Where("company_id = ? AND email = ?", dto.CompanyID, dto.Email).First(&existing).Error
	if err == nil {
		return nil, errors.New("candidate with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	candidate := &models.Candidate{
		CompanyID: dto.CompanyID,
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Status:    models.CandidateStatusActive,
	}

	if err := s.db.Create(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetByID retrieves a candidate by ID.
func (s *CandidateService) GetByID(id uuid.UUID) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.Preload("Applications").First(&candidate, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("candidate not found")
		}
		return nil, err
	}
	return &candidate, nil
}

// GetByEmail retrieves a candidate by email within a company.
func (s *CandidateService) GetByEmail(companyID uuid.UUID, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := s.db.Where("company_id = ? AND email = ?", companyID, email).First(&candidate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &candidate, nil
}

// Update updates a candidate.
func (s *CandidateService) Update(id uuid.UUID, dto UpdateCandidateDTO) (*models.Candidate, error) {
	candidate, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.FirstName != nil {
		candidate.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		candidate.LastName = *dto.LastName
	}
	if dto.Email != nil {
		var existing models.Candidate
		err := s.db.Where("company_id = ? AND email = ? AND id != ?", candidate.CompanyID, *dto.Email, id).First(&existing).Error
		if err == nil {
			return nil, errors.New("candidate with this email already exists")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		candidate.Email = *dto.Email
	}
	if dto.Phone != nil {
		candidate.Phone = *dto.Phone
	}
	if dto.Status != nil {
		candidate.Status = *dto.Status
	}

	if err := s.db.Save(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

// Delete soft-deletes a candidate.
func (s *CandidateService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Candidate{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("candidate not found")
	}
	return nil
}

// List retrieves candidates with filters and pagination.
func (s *CandidateService) List(filters CandidateFilters) (*PaginatedCandidates, error) {
	query := s.db.Model(&models.Candidate{}).Where("company_id = ?", filters.CompanyID)

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Search != "" {
		searchTerm := "%" + filters.Search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR email LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
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

	var candidates []models.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.Limit
	if int(total)%filters.Limit > 0 {
		totalPages++
	}

	return &PaginatedCandidates{
		Data:       candidates,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.Limit,
		TotalPages: totalPages,
	}, nil
}

// MarkAsHired marks a candidate as hired.
func (s *CandidateService) MarkAsHired(id uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	candidate.Status = models.CandidateStatusHired
	if err := s.db.Save(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

// MarkAsRejected marks a candidate as rejected.
func (s *CandidateService) MarkAsRejected(id uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	candidate.Status = models.CandidateStatusRejected
	if err := s.db.Save(candidate).Error; err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetOrCreate gets an existing candidate by email or creates a new one.
func (s *CandidateService) GetOrCreate(dto CreateCandidateDTO) (*models.Candidate, bool, error) {
	existing, err := s.GetByEmail(dto.CompanyID, dto.Email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	candidate, err := s.Create(dto)
	if err != nil {
		return nil, false, err
	}
	return candidate, true, nil
}
