package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/nexus/internal/model"
	"github.com/erazemk/nexus/internal/tracker"
	webembed "github.com/erazemk/nexus/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"kindName": func(k model.Kind) string {
			if k == model.KindShipped {
				return "已发货"
			}
			return "库存"
		},
		"shippedAt": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04")
		},
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates(loc *time.Location) (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}

	pages := []string{
		"index.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap(loc))
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
func (ts *Templates) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Tab     model.Kind
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	Tracker   *tracker.Tracker
	Templates *Templates
	Icons     map[int][]byte
	Log       zerolog.Logger
}
