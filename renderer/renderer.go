// Package renderer formats ledger reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/pricer"
)

//go:embed *.md
var templates embed.FS

// RenderOpenReport renders open positions to a markdown string.
func RenderOpenReport(r *pricer.OpenReport) string {
	partials := map[string]string{
		"open_report_title":  "open_report_title.md",
		"open_report_symbol": "open_report_symbol.md",
		"open_report_total":  "open_report_total.md",
	}
	return renderTemplate("openReport", "open_report.md", partials, r)
}

// RenderClosedReport renders realized gains to a markdown string.
func RenderClosedReport(r *pricer.ClosedReport) string {
	partials := map[string]string{
		"closed_report_title":  "closed_report_title.md",
		"closed_report_symbol": "closed_report_symbol.md",
		"closed_report_total":  "closed_report_total.md",
	}
	return renderTemplate("closedReport", "closed_report.md", partials, r)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
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
