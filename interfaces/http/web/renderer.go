package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names understood by Renderer.Render.
const (
	pageList    = "list"
	pageForm    = "form"
	pageLogin   = "login"
	pageSignup  = "signup"
	pageLoading = "loading"
	pageError   = "error"
)

var pages = []string{pageList, pageForm, pageLogin, pageSignup, pageLoading, pageError}

// Renderer executes the embedded page templates. Each page is parsed together
// with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page template.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New("layout.html").ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render writes page with status. The page is rendered into a buffer first
// so a template failure never leaves a half written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data *pageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
