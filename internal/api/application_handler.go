package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"workflowengine/internal/services"
)

// ApplicationHandler exposes application CRUD. Stage advancement, timeline,
// and bulk transitions are handled by WorkflowHandler.
type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	applications := rg.Group("/applications")
	applications.POST("", h.Create)
	applications.GET("", h.List)
	applications.GET("/:id", h.Get)
	applications.DELETE("/:id", h.Delete)
	applications.GET("/stats", h.GetStats)
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	var body struct {
		CompanyID    uuid.UUID `json:"company_id" binding:"required"`
		CandidateID  uuid.UUID `json:"candidate_id" binding:"required"`
		JobPostingID uuid.UUID `json:"job_posting_id" binding:"required"`
		ActorID      uuid.UUID `json:"actor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	application, err := h.service.Create(c.Request.Context(), services.CreateApplicationDTO{
		CompanyID:    body.CompanyID,
		CandidateID:  body.CandidateID,
		JobPostingID: body.JobPostingID,
		ActorID:      body.ActorID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, application)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	application, err := h.service.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, application)
}

func (h *ApplicationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ApplicationHandler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	filters := services.ApplicationFilters{
		CompanyID: companyID,
		Status:    c.Query("status"),
		Search:    c.Query("search"),
	}
	if v := c.Query("job_posting_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_posting_id"})
			return
		}
		filters.JobPostingID = &id
	}
	if v := c.Query("candidate_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candidate_id"})
			return
		}
		filters.CandidateID = &id
	}
	filters.Page, _ = strconv.Atoi(c.Query("page"))
	filters.Limit, _ = strconv.Atoi(c.Query("limit"))

	result, err := h.service.List(filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ApplicationHandler) GetStats(c *gin.Context) {
	jobPostingID, err := uuid.Parse(c.Query("job_posting_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_posting_id is required"})
		return
	}
	stats, err := h.service.GetStats(jobPostingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
