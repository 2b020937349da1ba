package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/materiais/internal/model"
	webembed "github.com/erazemk/materiais/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// fieldLabels are the form labels of validated fields.
var fieldLabels = map[string]string{
	"item":     "Item",
	"data":     "Data",
	"origem":   "Origem",
	"destino":  "Destino",
	"servidor": "Servidor",
	"name":     "Nome",
	"email":    "Email",
	"password": "Senha",
	"token":    "Token",
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"fieldLabel": func(field string) string {
			if l, ok := fieldLabels[field]; ok {
				return l
			}
			return field
		},
		"actionClass": func(action string) string {
			switch action {
			case model.ActionCreate:
				return "create"
			case model.ActionUpdate:
				return "update"
			default:
				return "delete"
			}
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs, err := webembed.TemplatesFS()
	if err != nil {
		return nil, err
	}

	layoutBytes, err := fs.ReadFile(tfs, webembed.LayoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages, err := webembed.Pages(tfs)
	if err != nil {
		return nil, fmt.Errorf("listing page templates: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with a non-200 status.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *model.User
	Error   string
	Success string
	Invalid []string
}

// HasError reports whether field failed validation.
func (p PageData) HasError(field string) bool {
	for _, f := range p.Invalid {
		if f == field {
			return true
		}
	}
	return false
}
