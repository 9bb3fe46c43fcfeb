package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captech/portal/internal/application/document"
)

type stubRenderer struct {
	lastHTML  string
	lastTitle string
}

func (s *stubRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	s.lastHTML = req.HTML
	s.lastTitle = req.Title
	return &RenderResult{PDFData: []byte("%PDF-1.7 stub")}, nil
}

func (s *stubRenderer) Close() error { return nil }

func sampleView(kind document.Kind) *document.View {
	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	return &document.View{
		Kind:         kind,
		Number:       "F-2026-042",
		IssueDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      &due,
		ValidUntil:   &due,
		Status:       "ISSUED",
		CompanyName:  "CapTech SARL",
		CompanySIRET: "80312345600017",
		CompanyEmail: "contact@captech.fr",
		CustomerName: "Garage Martin",
		CustomerAddr: "12 rue des Lilas, 69003 Lyon",
		CustomerVAT:  "FR40303265045",
		Lines: []document.LineView{
			{
				Description: "Développement sur mesure",
				Quantity:    decimal.NewFromInt(2),
				UnitHT:      decimal.RequireFromString("450.00"),
				VATRatePct:  decimal.RequireFromString("20"),
				DiscountPct: decimal.RequireFromString("10"),
				LineHT:      decimal.RequireFromString("810.00"),
			},
		},
		SubtotalHT: decimal.RequireFromString("810.00"),
		VATTotal:   decimal.RequireFromString("162.00"),
		TotalTTC:   decimal.RequireFromString("972.00"),
	}
}

func TestDocumentPrinter_RenderInvoice(t *testing.T) {
	renderer := &stubRenderer{}
	printer := NewDocumentPrinter(renderer, 10*time.Second)

	pdf, err := printer.Render(context.Background(), sampleView(document.KindInvoice))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Equal(t, "F-2026-042", renderer.lastTitle)

	assert.Contains(t, renderer.lastHTML, "Facture")
	assert.Contains(t, renderer.lastHTML, "F-2026-042")
	assert.Contains(t, renderer.lastHTML, "CapTech SARL")
	assert.Contains(t, renderer.lastHTML, "SIRET 80312345600017")
	assert.Contains(t, renderer.lastHTML, "Garage Martin")
	assert.Contains(t, renderer.lastHTML, "Développement sur mesure")
	assert.Contains(t, renderer.lastHTML, "01/03/2026")
	assert.Contains(t, renderer.lastHTML, "31/03/2026")
	assert.Contains(t, renderer.lastHTML, "810,00 €")
	assert.Contains(t, renderer.lastHTML, "972,00 €")
	assert.Contains(t, renderer.lastHTML, "+20,00 %")
}

func TestDocumentPrinter_RenderQuote(t *testing.T) {
	renderer := &stubRenderer{}
	printer := NewDocumentPrinter(renderer, 0)

	view := sampleView(document.KindQuote)
	view.Number = "D-2026-008"
	view.FooterNote = "Acompte de 30 % à la commande."

	pdf, err := printer.Render(context.Background(), view)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	assert.Contains(t, renderer.lastHTML, "Devis")
	assert.Contains(t, renderer.lastHTML, "D-2026-008")
	assert.Contains(t, renderer.lastHTML, "Valable jusqu'au")
	assert.Contains(t, renderer.lastHTML, "Acompte de 30 % à la commande.")
}
