package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout. Executing the result
// renders the layout, which pulls in the page's "content" block.
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).Funcs(templateFuncs()).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"title":   titleCase,
		"date":    formatDate,
		"number":  formatNumber,
		"percent": formatPercent,
		"value":   formatValue,
		"add":     func(a, b int) int { return a + b },
	}
}

// titleCase turns wire values such as "maintenance_due" into "Maintenance Due".
// A Caser keeps state, so one is created per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

func formatDate(t apiclient.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Date()
}

func floatOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case int:
		return float64(n), true
	case *int:
		if n == nil {
			return 0, false
		}
		return float64(*n), true
	}
	return 0, false
}

func formatNumber(v any) string {
	f, ok := floatOf(v)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", f)
}

func formatPercent(v any) string {
	f, ok := floatOf(v)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

// formatValue prints a form value without losing precision
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
