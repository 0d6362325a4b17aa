package store

import (
	"context"
	"sync"
	"time"

	"finitefield.org/flashcards/internal/deck"
)

// DefaultTaxonomyTTL bounds how long category lists are served from memory.
const DefaultTaxonomyTTL = 5 * time.Minute

// TaxonomySource is the subset of Store the cache reads from.
type TaxonomySource interface {
	Categories(ctx context.Context) ([]string, error)
	Subcategories(ctx context.Context, categories []string) ([]deck.Subcategory, error)
}

type taxonomyEntry struct {
	categories    []string
	subcategories []deck.Subcategory
	fetchedAt     time.Time
}

// Taxonomy caches the full category and subcategory lists rendered on the
// landing page.
type Taxonomy struct {
	source TaxonomySource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	entry *taxonomyEntry
}

// NewTaxonomy wraps source with a TTL cache.
func NewTaxonomy(source TaxonomySource, ttl time.Duration) *Taxonomy {
	if ttl <= 0 {
		ttl = DefaultTaxonomyTTL
	}
	return &Taxonomy{source: source, ttl: ttl, now: time.Now}
}

// Lists returns every category and every subcategory with its owner.
func (t *Taxonomy) Lists(ctx context.Context) ([]string, []deck.Subcategory, error) {
	t.mu.RLock()
	entry := t.entry
	t.mu.RUnlock()
	if entry != nil && t.now().Sub(entry.fetchedAt) < t.ttl {
		return entry.categories, entry.subcategories, nil
	}

	categories, err := t.source.Categories(ctx)
	if err != nil {
		return nil, nil, err
	}
	subcategories, err := t.source.Subcategories(ctx, nil)
	if err != nil {
		return nil, nil, err
	}

	t.mu.Lock()
	t.entry = &taxonomyEntry{
		categories:    categories,
		subcategories: subcategories,
		fetchedAt:     t.now(),
	}
	t.mu.Unlock()
	return categories, subcategories, nil
}

// Invalidate drops the cached lists. Call it after the deck is reloaded.
func (t *Taxonomy) Invalidate() {
	t.mu.Lock()
	t.entry = nil
	t.mu.Unlock()
}
