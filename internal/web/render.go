// Package web renders the server-side pages and carries flash notices
// across redirects.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"estudio/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Page is what every template receives.
type Page struct {
	Title         string
	Active        string
	Flashes       []Flash
	CorrelationID string
	Data          any
}

type Renderer struct {
	pages   map[string]*template.Template
	flashes *FlashStore
}

func NewRenderer(secret string) (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, flashes: NewFlashStore(secret)}, nil
}

// HTML renders page inside the layout. Pending flash notices are consumed.
func (rn *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page string, p Page) {
	t, ok := rn.pages[page]
	if !ok {
		slog.ErrorContext(r.Context(), "unknown template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p.Flashes = append(rn.flashes.Pop(w, r), p.Flashes...)
	p.CorrelationID = middleware.GetCorrelationID(r.Context())
	if p.Active == "" {
		p.Active = page
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.ErrorContext(r.Context(), "failed to render template", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

// Redirect sends a 303 to url after queueing flashes.
func (rn *Renderer) Redirect(w http.ResponseWriter, r *http.Request, url string, flashes ...Flash) {
	rn.flashes.Set(w, flashes)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Error renders the generic error page.
func (rn *Renderer) Error(w http.ResponseWriter, r *http.Request, status int) {
	msg := "Ocurrió un error inesperado. Intenta nuevamente más tarde."
	if status == http.StatusNotFound {
		msg = "La página o el registro solicitado no existe."
	}
	rn.HTML(w, r, status, "error", Page{
		Title:  http.StatusText(status),
		Active: "-",
		Data:   map[string]any{"Status": status, "Message": msg},
	})
}
