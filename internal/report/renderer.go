package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/datsun80zx/payrep/internal/payment"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer handles report template rendering
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new template renderer
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatMoney":   FormatMoney,
		"formatDate":    formatDate,
		"formatPercent": formatPercent,
		"truncate":      Truncate,
		"methods":       payment.Methods,
		"locations":     payment.Locations,
		"rank":          RankCustomers,
		"monthName":     func(m time.Month) string { return m.String() },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	return &Renderer{templates: tmpl}, nil
}

// RenderWeekly renders one weekly report to HTML
func (r *Renderer) RenderWeekly(w io.Writer, report *WeeklyReport) error {
	return r.templates.ExecuteTemplate(w, "weekly.html", report)
}

// RenderMonthly renders a monthly report with its calendar grid
func (r *Renderer) RenderMonthly(w io.Writer, report *MonthlyReport) error {
	return r.templates.ExecuteTemplate(w, "monthly.html", report)
}

// RenderYearly renders the yearly roll-up
func (r *Renderer) RenderYearly(w io.Writer, report *YearlyReport) error {
	return r.templates.ExecuteTemplate(w, "yearly.html", report)
}

// FormatMoney formats an amount with thousands separators and two decimals
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	formatted := "$" + b.String() + "." + decPart

	if negative {
		return "(" + formatted + ")"
	}
	return formatted
}

// formatPercent formats part as a percentage of whole
func formatPercent(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "N/A"
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// formatDate formats a time as YYYY-MM-DD
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02")
}

// Truncate shortens a string with ellipsis
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
