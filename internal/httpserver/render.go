package httpserver

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/httpx"
	"finitefield.org/flashcards/internal/observability"
)

// Page template names.
const (
	pageLanding  = "landing"
	pagePractice = "practice"
	pageMessage  = "message"
)

// renderer holds one template set per page, each layered over the base layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(templates fs.FS) (*renderer, error) {
	base, err := template.New("_root").ParseFS(templates, "base.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}
	r := &renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{pageLanding, pagePractice, pageMessage} {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base template: %w", err)
		}
		t, err := clone.ParseFS(templates, page+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// render executes the base layout for page. Output is buffered so a template
// failure can still produce a clean error response.
func (rn *renderer) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	t, ok := rn.pages[page]
	if !ok {
		httpx.WriteError(w, r, httpx.NewError("template_missing", "The page could not be rendered.", http.StatusInternalServerError))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("page", page), zap.Error(err))
		httpx.WriteError(w, r, httpx.NewError("template_error", "The page could not be rendered.", http.StatusInternalServerError))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
