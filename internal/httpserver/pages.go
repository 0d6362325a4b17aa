package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/content"
	"finitefield.org/flashcards/internal/filterform"
	"finitefield.org/flashcards/internal/handlers"
	"finitefield.org/flashcards/internal/httpx"
	custommw "finitefield.org/flashcards/internal/middleware"
	"finitefield.org/flashcards/internal/observability"
	"finitefield.org/flashcards/internal/practice"
	"finitefield.org/flashcards/internal/store"
)

type app struct {
	repo     Repository
	taxonomy *store.Taxonomy
	practice *practice.Service
	pages    *renderer
	deckName string
}

func (a *app) landing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := custommw.GetSession(r)

	categories, subcategories, err := a.taxonomy.Lists(ctx)
	if err != nil {
		a.fail(w, r, "load taxonomy", err)
		return
	}
	total, err := a.repo.TotalCount(ctx)
	if err != nil {
		a.fail(w, r, "count cards", err)
		return
	}
	var filtered *int64
	if s.Data.Filter.Active() {
		n, err := a.repo.CountFiltered(ctx, s.Data.Filter)
		if err != nil {
			a.fail(w, r, "count filtered cards", err)
			return
		}
		filtered = &n
	}

	if s.Data.Flash != "" {
		s.MarkDirty()
	}
	vm := handlers.BuildLandingData(s.Data, handlers.LandingInput{
		DeckName:      a.deckName,
		Categories:    categories,
		Subcategories: subcategories,
		TotalCount:    total,
		FilteredCount: filtered,
		CSRFToken:     custommw.CSRFToken(r),
	})
	a.pages.render(w, r, pageLanding, http.StatusOK, vm)
}

func (a *app) applyFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, r, httpx.NewError("invalid_form", "The filter form could not be read.", http.StatusBadRequest))
		return
	}
	s := custommw.GetSession(r)
	sel, err := filterform.ParseSelection(r.PostForm)
	if errors.Is(err, filterform.ErrNoSubcategorySelected) {
		s.Data.Flash = filterform.MessageSelectSubcategory
		s.MarkDirty()
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		httpx.WriteError(w, r, httpx.NewError("invalid_form", err.Error(), http.StatusBadRequest))
		return
	}

	a.practice.Apply(s.Data, sel)
	s.MarkDirty()
	observability.FromContext(r.Context()).Debug("filters applied",
		zap.Strings("keywords", sel.Keywords),
		zap.Bool("all_categories", sel.AllCategories),
		zap.Int("categories", len(sel.Categories)),
		zap.Int("subcategories", len(sel.Subcategories)),
		zap.Bool("include_images", sel.IncludeImages),
	)
	http.Redirect(w, r, handlers.PracticePath, http.StatusSeeOther)
}

func (a *app) practicePage(w http.ResponseWriter, r *http.Request) {
	s := custommw.GetSession(r)
	res, err := a.practice.Next(r.Context(), s.Data)
	s.MarkDirty()
	if errors.Is(err, practice.ErrNoCards) {
		practice.Flash(s.Data)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		a.fail(w, r, "draw practice card", err)
		return
	}
	a.pages.render(w, r, pagePractice, http.StatusOK, handlers.BuildPracticeData(a.deckName, res.Card, res.Count))
}

func (a *app) resetSession(w http.ResponseWriter, r *http.Request) {
	custommw.GetSession(r).Reset()
	a.pages.render(w, r, pageMessage, http.StatusOK, handlers.BuildResetData(a.deckName))
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.FromContext(r.Context()).Error(op+" failed", zap.Error(err))
	httpx.WriteError(w, r, httpx.NewError("internal_server_error", "Something went wrong. Please try again.", http.StatusInternalServerError))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(w, r, httpx.NewError("not_found", "The page you requested does not exist.", http.StatusNotFound))
}

func highlightCSSHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(content.HighlightCSS()))
}

// deckImages serves the deck's image directory. Directory listings are
// refused.
func deckImages(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") || !content.IsImage(r.URL.Path) {
			notFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=604800")
		files.ServeHTTP(w, r)
	})
}
