package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/infrastructure/logger"
	"github.com/captech/portal/internal/interfaces/http/dto"
	"github.com/captech/portal/internal/interfaces/http/middleware"
)

// AccountingHandler serves the accounting report endpoints
type AccountingHandler struct {
	BaseHandler
	service *accounting.Service
}

// NewAccountingHandler creates a new AccountingHandler
func NewAccountingHandler(service *accounting.Service) *AccountingHandler {
	return &AccountingHandler{service: service}
}

// Report returns one page of the filtered accounting report.
// GET /api/v1/accounting/report?status=ISSUED,PAID&from=2026-01-01&page=2
func (h *AccountingHandler) Report(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	page, err := h.service.Report(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	data := gin.H{"rows": page.Rows, "totals": page.Totals}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, int64(page.TotalCount), page.Page, page.PageSize, page.TotalPages))
}

// ReportCSV streams the whole filtered report as a CSV download.
// GET /api/v1/accounting/export.csv
func (h *AccountingHandler) ReportCSV(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}

	filename := fmt.Sprintf("rapport_comptable_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.service.WriteCSV(c.Request.Context(), c.Writer, companyID, filter); err != nil {
		// the response may be partially written by now, only log
		logger.GetGinLogger(c).Error("CSV export failed", zap.Error(err))
		c.Error(err)
	}
}

// RegisterRoutes registers the accounting routes
func (h *AccountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/accounting")
	{
		group.GET("/report", h.Report)
		group.GET("/export.csv", h.ReportCSV)
	}
}
