package server

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates is an echo.Renderer over the embedded pages.
type Templates struct {
	tmpl *template.Template
}

// NewTemplates parses every embedded page.
func NewTemplates() (*Templates, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{tmpl: tmpl}, nil
}

// Render executes the named page.
func (t *Templates) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}
