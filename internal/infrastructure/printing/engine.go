package printing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nbsp separates digit groups and the currency sign so a printed amount
// never wraps across lines
const nbsp = " "

// TemplateEngine renders document HTML with French business formatting.
// It wraps html/template with a fixed function map.
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a template engine with the default functions
func NewTemplateEngine() *TemplateEngine {
	titler := cases.Title(language.French)
	e := &TemplateEngine{}
	e.funcMap = template.FuncMap{
		"formatMoney": FormatMoney,
		// the percent string is fully program-generated, so it is safe to
		// mark as HTML; otherwise html/template escapes the leading + sign
		"formatPercent": func(v decimal.Decimal, places int32) template.HTML {
			return template.HTML(FormatPercent(v, places))
		},
		"formatDate":    formatDate,
		"formatDatePtr": formatDatePtr,
		"upper":         strings.ToUpper,
		"lower":         strings.ToLower,
		"title":         titler.String,
		"trim":          strings.TrimSpace,
	}
	return e
}

// Render parses and executes a template against the given data
func (e *TemplateEngine) Render(name, content string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// FormatMoney renders an amount the French way: non-breaking space as the
// thousands separator, comma as the decimal mark, euro sign trailing.
// Example: 12345.67 -> "12 345,67 €"
func FormatMoney(v decimal.Decimal) string {
	return formatFrenchNumber(v, 2) + nbsp + "€"
}

// FormatPercent renders a rate with an explicit leading sign, a fixed
// number of decimals, a comma decimal mark and a trailing percent sign.
// Example: FormatPercent(20, 2) -> "+20,00 %"
func FormatPercent(v decimal.Decimal, places int32) string {
	s := v.StringFixed(places)
	s = strings.ReplaceAll(s, ".", ",")
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + nbsp + "%"
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

// formatFrenchNumber fixes the decimals, swaps the decimal mark and
// groups the integer digits in threes
func formatFrenchNumber(v decimal.Decimal, places int32) string {
	s := v.StringFixed(places)

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, nbsp)
	if fracPart != "" {
		out += "," + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}
