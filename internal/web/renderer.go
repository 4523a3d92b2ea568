// Package web renders the server-side HTML pages.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const layoutFile = "templates/layout.html"

// Page is the data handed to every page template.
type Page struct {
	Title   string
	Active  string // Nav entry to highlight
	Notice  string // Informational banner, e.g. "no matches"
	Warning string // Degraded collaborator banner
	Error   string // Validation or request error
	Data    interface{}
}

// NavItem is one sidebar entry.
type NavItem struct {
	Key   string
	Label string
	Path  string
}

// Nav lists the sidebar menu in display order.
var Nav = []NavItem{
	{Key: "profile", Label: "Profile", Path: "/profile"},
	{Key: "portfolio", Label: "Investment portfolio", Path: "/portfolio"},
	{Key: "news", Label: "News", Path: "/news"},
	{Key: "forecast", Label: "AI", Path: "/forecast"},
}

// Renderer executes page templates. Each page is parsed together with the
// shared layout into its own template set.
type Renderer struct {
	pages map[string]*template.Template
	log   zerolog.Logger
}

// NewRenderer parses templates/layout.html and every other
// templates/*.html file of fsys.
func NewRenderer(fsys fs.FS, log zerolog.Logger) (*Renderer, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	r := &Renderer{
		pages: make(map[string]*template.Template),
		log:   log.With().Str("component", "renderer").Logger(),
	}

	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}
		r.pages[name] = tmpl
	}

	if len(r.pages) == 0 {
		return nil, fmt.Errorf("no page templates found")
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}

// Render writes the page with the given status. The template is executed
// into a buffer first so a failing template never produces a partial page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.log.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error().Err(err).Str("page", page).Msg("Failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.log.Debug().Err(err).Str("page", page).Msg("Client went away while writing page")
	}
}

var funcs = template.FuncMap{
	"nav": func() []NavItem { return Nav },
	"percent": func(v float64) string {
		return fmt.Sprintf("%.2f%%", v*100)
	},
	"score": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04:05")
	},
	"date": func(t time.Time) string {
		return t.UTC().Format("2006-01-02")
	},
	"join": strings.Join,
	"contains": func(set []string, v string) bool {
		for _, s := range set {
			if strings.EqualFold(s, v) {
				return true
			}
		}
		return false
	},
	"add": func(a, b int) int { return a + b },
}
