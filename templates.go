// templates.go
package main

import (
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"formatSize": formatSize,
	"formatPercent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f)
	},
}

var uploadTemplate = template.Must(template.New("upload.html").Funcs(templateFuncs).ParseFS(embeddedTemplates, "templates/upload.html"))
var resultTemplate = template.Must(template.New("results.html").Funcs(templateFuncs).ParseFS(embeddedTemplates, "templates/results.html"))

// formatSize renders an upload size. Uploads are capped well below a
// gigabyte, so MB is the largest unit needed.
func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
