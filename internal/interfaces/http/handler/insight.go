package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/captech/portal/internal/application/insight"
)

// InsightHandler serves the business insight endpoints
type InsightHandler struct {
	BaseHandler
	service *insight.Service
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(service *insight.Service) *InsightHandler {
	return &InsightHandler{service: service}
}

// List evaluates every insight rule for the scoped company.
// GET /api/v1/insights
func (h *InsightHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	records, err := h.service.Evaluate(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// RegisterRoutes registers the insight routes
func (h *InsightHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/insights", h.List)
}
