// Package testutil provides helpers for HTTP-level tests.
package testutil

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"finitefield.org/flashcards/internal/deck"
	"finitefield.org/flashcards/internal/httpserver"
	"finitefield.org/flashcards/internal/store"
)

// SampleDeck is the deck NewServer loads by default.
var SampleDeck = []deck.Flashcard{
	{Category: "Math", Subcategory: "Algebra", QuestionHTML: "<h3>Question :</h3>\n<p>Solve x+2=4</p>", AnswerHTML: "<h3>Answer :</h3>\n<p>x = 2</p>"},
	{Category: "Math", Subcategory: "Geometry", QuestionHTML: "<h3>Question :</h3>\n<p>Angles in a triangle?</p>", AnswerHTML: "<h3>Answer :</h3>\n<p>180</p>"},
	{Category: "Science", Subcategory: "Physics", QuestionHTML: "<h3>Question :</h3>\n<p>What is gravity?</p>", AnswerHTML: "<h3>Answer :</h3>\n<p>A force</p>"},
	{QuestionHTML: "<h3>Question :</h3>\n", AnswerHTML: `<h3>Answer :</h3>` + "\n" + `<img src="/deck/img/a.png" alt="a.png">`, ImageOnly: true},
}

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithImageDir serves deck images from dir.
func WithImageDir(dir string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.ImageDir = dir
	}
}

// OpenStore opens a temp-dir SQLite store seeded with cards.
func OpenStore(t testing.TB, cards []deck.Flashcard) *store.Store {
	t.Helper()

	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "deck.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	for _, card := range cards {
		if _, err := s.InsertFlashcard(ctx, card); err != nil {
			t.Fatalf("insert card: %v", err)
		}
	}
	if err := s.PopulateFTS(ctx); err != nil {
		t.Fatalf("populate fts: %v", err)
	}
	return s
}

// NewServer constructs an httptest server running the full HTTP stack over
// a store seeded with SampleDeck.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:    ":0",
		Repository: OpenStore(t, SampleDeck),
		DeckName:   "Test Deck",
		SigningKey: "test-signing-key",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

// NewClient returns a client that keeps cookies and does not follow redirects.
func NewClient(t testing.TB) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
