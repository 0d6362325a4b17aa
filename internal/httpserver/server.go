// Package httpserver assembles the chi router, middleware stack and page
// handlers into an *http.Server.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/content"
	custommw "finitefield.org/flashcards/internal/middleware"
	"finitefield.org/flashcards/internal/observability"
	"finitefield.org/flashcards/internal/practice"
	"finitefield.org/flashcards/internal/session"
	"finitefield.org/flashcards/internal/store"
	"finitefield.org/flashcards/public"
)

const (
	defaultDeckName     = "Flashcards"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	requestTimeout      = 30 * time.Second
	highlightCSSPath    = "/static/css/highlight.css"
)

// Repository is the deck storage the pages read from.
type Repository interface {
	practice.Repository
	store.TaxonomySource
	TotalCount(ctx context.Context) (int64, error)
}

// Config holds runtime options for the HTTP server.
type Config struct {
	Address    string
	Repository Repository
	// Sessions defaults to an in-memory store.
	Sessions session.Store
	Logger   *zap.Logger
	DeckName string
	// ImageDir is served under /deck/img/ when set.
	ImageDir      string
	SessionTTL    time.Duration
	SigningKey    string
	SecureCookies bool
	TaxonomyTTL   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Repository == nil {
		return nil, errors.New("httpserver: repository is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	deckName := strings.TrimSpace(cfg.DeckName)
	if deckName == "" {
		deckName = defaultDeckName
	}

	templates, err := public.TemplatesFS()
	if err != nil {
		return nil, err
	}
	pages, err := newRenderer(templates)
	if err != nil {
		return nil, err
	}
	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, err
	}

	taxonomy := store.NewTaxonomy(cfg.Repository, cfg.TaxonomyTTL)
	if c, ok := cfg.Repository.(interface{ OnClear(func()) }); ok {
		c.OnClear(taxonomy.Invalidate)
	}
	app := &app{
		repo:     cfg.Repository,
		taxonomy: taxonomy,
		practice: practice.NewService(cfg.Repository, logger),
		pages:    pages,
		deckName: deckName,
	}
	manager := custommw.NewSessionManager(sessions, custommw.SessionOptions{
		SigningKey: cfg.SigningKey,
		Secure:     cfg.SecureCookies,
		TTL:        cfg.SessionTTL,
		Logger:     logger,
	})

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoveryMiddleware(logger))
	router.Use(chimw.Compress(5))
	router.Use(chimw.Timeout(requestTimeout))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get(highlightCSSPath, highlightCSSHandler)
	router.Handle("/static/*", http.StripPrefix("/static", custommw.AssetsWithCache(staticContent, "")))
	if cfg.ImageDir != "" {
		router.Handle(content.ImageURLPrefix+"*", http.StripPrefix(strings.TrimSuffix(content.ImageURLPrefix, "/"), deckImages(cfg.ImageDir)))
	}

	router.Group(func(r chi.Router) {
		r.Use(manager.Middleware)
		r.Use(custommw.CSRF)
		r.Use(chimw.NoCache)

		r.Get("/", app.landing)
		r.Post("/apply_filters", app.applyFilters)
		r.Get("/practice", app.practicePage)
		r.Get("/reset_session", app.resetSession)
	})
	router.NotFound(notFound)

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       durationOr(cfg.ReadTimeout, defaultReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      durationOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       durationOr(cfg.IdleTimeout, defaultIdleTimeout),
	}, nil
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
