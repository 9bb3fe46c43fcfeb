package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/captech/portal/internal/application/export"
	"github.com/captech/portal/internal/interfaces/http/dto"
	"github.com/captech/portal/internal/interfaces/http/middleware"
)

// ExportHandler serves the asynchronous export job endpoints
type ExportHandler struct {
	BaseHandler
	service *export.Service
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(service *export.Service) *ExportHandler {
	return &ExportHandler{service: service}
}

// Create queues a new CSV export job for the scoped company.
// POST /api/v1/exports with an optional report filter body.
func (h *ExportHandler) Create(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var query dto.ReportQuery
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&query); err != nil {
			h.BadRequest(c, middleware.ValidationMessage(err))
			return
		}
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	job, err := h.service.Enqueue(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, job)
}

// Get returns one export job, scoped to the requesting company.
// GET /api/v1/exports/:id
func (h *ExportHandler) Get(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "export id must be a valid UUID")
		return
	}

	job, err := h.service.Job(c.Request.Context(), companyID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, job)
}

// RegisterRoutes registers the export job routes
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/exports")
	{
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
	}
}
