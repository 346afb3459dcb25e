package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	htmlPolicy       = bluemonday.UGCPolicy()
)

// markdown renders untrusted markdown to sanitized HTML.
func markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(htmlPolicy.SanitizeBytes(buf.Bytes()))
}

// renderer handles template rendering.
type renderer struct {
	base   *template.Template
	config *Config
}

func newRenderer(cfg *Config) *renderer {
	base := template.Must(template.New("").
		Funcs(templateFuncs()).
		ParseFS(templatesFS, "templates/base.html"))
	return &renderer{base: base, config: cfg}
}

// PageData contains common data for all pages.
type PageData struct {
	Title           string
	BasePath        string
	CurrentPath     string
	RefreshInterval int // in seconds, zero disables
	Data            any
}

// render renders a page template inside the base layout.
// It clones the base template and parses the page-specific template into it,
// avoiding conflicts between "content" blocks in different pages.
func (r *renderer) render(w http.ResponseWriter, req *http.Request, name string, data any) error {
	pageData := PageData{
		Title:       r.config.Title,
		BasePath:    r.config.BasePath,
		CurrentPath: req.URL.Path,
		Data:        data,
	}
	if r.config.RefreshInterval > 0 {
		pageData.RefreshInterval = int(r.config.RefreshInterval.Seconds())
	}

	tmpl, err := r.base.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}

	pageTemplatePath := "templates/" + name
	if _, err := tmpl.ParseFS(templatesFS, pageTemplatePath); err != nil {
		return fmt.Errorf("parse page template %s: %w", pageTemplatePath, err)
	}

	// Render to a buffer so a template error does not leave a half-written page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", pageData); err != nil {
		return fmt.Errorf("execute page template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime":    formatTime,
		"formatTimeAgo": formatTimeAgo,
		"markdown":      markdown,
		"typeBgColor":   typeBgColor,
		"orDash":        orDash,
		"json":          jsonEncode,
		"add":           add,
		"sub":           sub,
	}
}

// Template helper functions

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func typeBgColor(eventType string) string {
	switch eventType {
	case "summary_updated":
		return "bg-green-100 text-green-800"
	case "summary_failed":
		return "bg-red-100 text-red-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func jsonEncode(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func add(a, b int) int {
	return a + b
}

func sub(a, b int) int {
	return a - b
}
