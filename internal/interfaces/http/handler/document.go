package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/captech/portal/internal/application/document"
)

// DocumentHandler serves the PDF rendering endpoints
type DocumentHandler struct {
	BaseHandler
	service *document.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service *document.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// InvoicePDF renders an invoice as PDF.
// GET /api/v1/invoices/:id/pdf
func (h *DocumentHandler) InvoicePDF(c *gin.Context) {
	h.renderPDF(c, "facture", h.service.RenderInvoicePDF)
}

// QuotePDF renders a quote as PDF.
// GET /api/v1/quotes/:id/pdf
func (h *DocumentHandler) QuotePDF(c *gin.Context) {
	h.renderPDF(c, "devis", h.service.RenderQuotePDF)
}

func (h *DocumentHandler) renderPDF(c *gin.Context, prefix string, render func(ctx context.Context, companyID, id uuid.UUID) ([]byte, error)) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "document id must be a valid UUID")
		return
	}

	pdf, err := render(c.Request.Context(), companyID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_%s.pdf", prefix, id)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// RegisterRoutes registers the PDF routes
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/invoices/:id/pdf", h.InvoicePDF)
	rg.GET("/quotes/:id/pdf", h.QuotePDF)
}
