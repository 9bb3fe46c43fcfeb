package printing

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/captech/portal/internal/application/document"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	invoiceTemplatePath = "templates/invoice.html"
	quoteTemplatePath   = "templates/quote.html"
)

// DocumentPrinter renders invoice and quote views to PDF: the built-in
// HTML template is executed against the view, then handed to the
// configured PDFRenderer.
type DocumentPrinter struct {
	engine   *TemplateEngine
	renderer PDFRenderer
	timeout  time.Duration
}

// NewDocumentPrinter creates a printer backed by the given renderer.
// A zero timeout falls back to the renderer default.
func NewDocumentPrinter(renderer PDFRenderer, timeout time.Duration) *DocumentPrinter {
	return &DocumentPrinter{
		engine:   NewTemplateEngine(),
		renderer: renderer,
		timeout:  timeout,
	}
}

// Render produces the PDF bytes for a document view
func (p *DocumentPrinter) Render(ctx context.Context, view *document.View) ([]byte, error) {
	path := invoiceTemplatePath
	if view.Kind == document.KindQuote {
		path = quoteTemplatePath
	}
	content, err := templateFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	html, err := p.engine.Render(string(view.Kind), string(content), view)
	if err != nil {
		return nil, err
	}

	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:    html,
		Title:   view.Number,
		Timeout: p.timeout,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}

var _ document.Printer = (*DocumentPrinter)(nil)
