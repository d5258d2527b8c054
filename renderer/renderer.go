// Package renderer renders analyses, transactions and series as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/yaman-yucel/lirashield"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

// funcs are available to every template.
var funcs = template.FuncMap{
	"pct":   optionalPercent,
	"qty":   quantity,
	"price": price,
	"days":  days,
	"cell":  cell,
}

// optionalPercent renders a benchmark that may be unresolved.
func optionalPercent(p *lirashield.Percent) string {
	if p == nil {
		return "n/a"
	}
	return p.SignedString()
}

func quantity(q lirashield.Quantity) string { return humanize.CommafWithDigits(q.Float64(), 6) }

func price(v float64) string { return humanize.CommafWithDigits(v, 4) }

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return humanize.Comma(int64(n)) + " days"
}

// cell escapes text for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// RenderAnalysis renders an analysis report.
func RenderAnalysis(a *Analysis) string {
	partials := map[string]string{
		"analysis_summary": "analysis_summary.md",
		"analysis_tickers": "analysis_tickers.md",
		"analysis_lots":    "analysis_lots.md",
		"analysis_notes":   "analysis_notes.md",
	}
	return renderTemplate("analysis", "analysis.md", partials, a)
}

// RenderTransactions renders the transaction log.
func RenderTransactions(txs []lirashield.Transaction) string {
	return renderTemplate("transactions", "transactions.md", nil, NewTransactions(txs))
}

// RenderSeries renders a price or rate series.
func RenderSeries(s *Series) string {
	return renderTemplate("series", "series.md", nil, s)
}

// RenderCPI renders the monthly CPI prints.
func RenderCPI(entries []lirashield.CPIEntry) string {
	return renderTemplate("cpi", "cpi.md", nil, entries)
}
