package app

import (
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"ymd":       func(t time.Time) string { return t.Format(DateLayout) },
	"monthPath": MonthPath,
	"addPath":   AddPath,
	"sameDay":   SameDay,
	"inMonth":   InMonth,
	"inRange":   inRange,
}

// parsePages loads the embedded page templates
func parsePages() (*template.Template, error) {
	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return pages, nil
}
