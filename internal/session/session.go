// Package session keeps per-visitor practice state: the filter criteria, the
// cards already seen in the current cycle, a cached match count and a one-shot
// flash message.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"finitefield.org/flashcards/internal/deck"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by Store.Load for unknown or expired ids.
var ErrNotFound = errors.New("session: not found")

// Data is the state persisted for one visitor.
type Data struct {
	SeenIDs []int64       `json:"seen_ids,omitempty"`
	Filter  deck.Criteria `json:"filter"`
	// FilteredCount caches how many cards match Filter. Nil means unknown.
	FilteredCount *int64 `json:"filtered_count,omitempty"`
	Flash         string `json:"flash,omitempty"`
	CSRFToken     string `json:"csrf,omitempty"`
}

// NewData returns a fresh session that matches every card.
func NewData() *Data {
	return &Data{Filter: deck.DefaultCriteria()}
}

// SetFilter replaces the criteria and resets the practice cycle.
func (d *Data) SetFilter(c deck.Criteria) {
	d.Filter = c.Clone()
	d.SeenIDs = nil
	d.FilteredCount = nil
}

// SetCount caches the filtered count.
func (d *Data) SetCount(n int64) {
	d.FilteredCount = &n
}

// MarkSeen records id as shown in the current cycle.
func (d *Data) MarkSeen(id int64) {
	d.SeenIDs = append(d.SeenIDs, id)
}

// ConsumeFlash returns the pending flash message and clears it.
func (d *Data) ConsumeFlash() string {
	msg := d.Flash
	d.Flash = ""
	return msg
}

// Store persists session data by id.
type Store interface {
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, id string, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh, lexically sortable session id.
func NewID() string {
	return ulid.Make().String()
}
