package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/captech/portal/internal/application/dashboard"
)

// DashboardHandler serves the dashboard snapshot endpoints
type DashboardHandler struct {
	BaseHandler
	service *dashboard.Service
	options dashboard.Options
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *dashboard.Service, options dashboard.Options) *DashboardHandler {
	return &DashboardHandler{service: service, options: options}
}

// Get returns the dashboard snapshot for the scoped company.
// GET /api/v1/dashboard?refresh=true bypasses the cache.
func (h *DashboardHandler) Get(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	opts := h.options
	if c.Query("refresh") == "true" {
		opts.UseCache = false
	}

	snapshot, err := h.service.Compute(c.Request.Context(), companyID, opts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snapshot)
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Get)
}
