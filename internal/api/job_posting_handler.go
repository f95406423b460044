package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workflowengine/internal/services"
)

// JobPostingHandler exposes job posting CRUD and lifecycle transitions.
type JobPostingHandler struct {
	service *services.JobPostingService
}

func NewJobPostingHandler(service *services.JobPostingService) *JobPostingHandler {
	return &JobPostingHandler{service: service}
}

func (h *JobPostingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	postings := rg.Group("/job-postings")
	postings.POST("", h.Create)
	postings.GET("", h.List)
	postings.GET("/:id", h.Get)
	postings.PUT("/:id", h.Update)
	postings.DELETE("/:id", h.Delete)
	postings.POST("/:id/publish", h.Publish)
	postings.POST("/:id/pause", h.Pause)
	postings.POST("/:id/resume", h.Resume)
	postings.POST("/:id/close", h.Close)
	postings.POST("/:id/fill", h.MarkAsFilled)
	postings.GET("/:id/stats", h.GetStats)
	postings.GET("/public", h.GetPublicPostings)
}

func (h *JobPostingHandler) Create(c *gin.Context) {
	var body struct {
		CompanyID        uuid.UUID  `json:"company_id" binding:"required"`
		Title            string     `json:"title" binding:"required"`
		Description      string     `json:"description" binding:"required"`
		HiringManagerID  *uuid.UUID `json:"hiring_manager_id"`
		CreatedByUserID  *uuid.UUID `json:"created_by_user_id"`
		UseDefaultStages *bool      `json:"use_default_stages"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	useDefaults := true
	if body.UseDefaultStages != nil {
		useDefaults = *body.UseDefaultStages
	}
	posting, err := h.service.Create(services.CreateJobPostingDTO{
		CompanyID:        body.CompanyID,
		Title:            body.Title,
		Description:      body.Description,
		HiringManagerID:  body.HiringManagerID,
		CreatedByUserID:  body.CreatedByUserID,
		UseDefaultStages: useDefaults,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, posting)
}

func (h *JobPostingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job posting id"})
		return
	}
	posting, err := h.service.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, posting)
}

func (h *JobPostingHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job posting id"})
		return
	}
	var dto services.UpdateJobPostingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	posting, err := h.service.Update(id, dto)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, posting)
}

func (h *JobPostingHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job posting id"})
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *JobPostingHandler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.service.List(services.JobPostingFilters{
		CompanyID: companyID,
		Status:    c.Query("status"),
		Search:    c.Query("search"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *JobPostingHandler) transition(c *gin.Context, fn func(uuid.UUID) (interface{}, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job posting id"})
		return
	}
	result, err := fn(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *JobPostingHandler) Publish(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (interface{}, error) { return h.service.Publish(id) })
}

func (h *JobPostingHandler) Pause(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (interface{}, error) { return h.service.Pause(id) })
}

func (h *JobPostingHandler) Resume(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (interface{}, error) { return h.service.Resume(id) })
}

func (h *JobPostingHandler) Close(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (interface{}, error) { return h.service.Close(id) })
}

func (h *JobPostingHandler) MarkAsFilled(c *gin.Context) {
	h.transition(c, func(id uuid.UUID) (interface{}, error) { return h.service.MarkAsFilled(id) })
}

func (h *JobPostingHandler) GetStats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job posting id"})
		return
	}
	stats, err := h.service.GetStats(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *JobPostingHandler) GetPublicPostings(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.service.GetPublicPostings(companyID, services.JobPostingFilters{Page: page, Limit: limit})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
