package printing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"simple amount", "1234.50", "1 234,50 €"},
		{"millions grouped in threes", "12345678.90", "12 345 678,90 €"},
		{"no thousands", "42.00", "42,00 €"},
		{"zero", "0", "0,00 €"},
		{"negative", "-1234.56", "-1 234,56 €"},
		{"rounds to two decimals", "99.999", "100,00 €"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decimal.RequireFromString(tt.value)
			assert.Equal(t, tt.want, FormatMoney(v))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+20,00 %", FormatPercent(decimal.RequireFromString("20.00"), 2))
	assert.Equal(t, "+5,50 %", FormatPercent(decimal.RequireFromString("5.50"), 2))
	assert.Equal(t, "+5,5 %", FormatPercent(decimal.RequireFromString("5.50"), 1))
	assert.Equal(t, "+0,00 %", FormatPercent(decimal.Zero, 2))
	assert.Equal(t, "-3,00 %", FormatPercent(decimal.RequireFromString("-3"), 2))
	assert.Equal(t, "+20 %", FormatPercent(decimal.RequireFromString("20.4"), 0))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 2, 28, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "28/02/2026", formatDate(d))
	assert.Equal(t, "28/02/2026", formatDatePtr(&d))
	assert.Equal(t, "", formatDatePtr(nil))
}

func TestTemplateEngine_Render(t *testing.T) {
	engine := NewTemplateEngine()

	data := struct {
		Name   string
		Amount decimal.Decimal
		Rate   decimal.Decimal
		Date   time.Time
	}{
		Name:   "garage martin",
		Amount: decimal.RequireFromString("12345.67"),
		Rate:   decimal.RequireFromString("5.5"),
		Date:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	out, err := engine.Render("test", `{{title .Name}} | {{formatMoney .Amount}} | {{formatPercent .Rate 1}} | {{formatDate .Date}}`, data)
	require.NoError(t, err)
	assert.Equal(t, "Garage Martin | 12 345,67 € | +5,5 % | 02/01/2026", out)
}

func TestTemplateEngine_Render_ParseError(t *testing.T) {
	engine := NewTemplateEngine()
	_, err := engine.Render("broken", `{{.Unclosed`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}
