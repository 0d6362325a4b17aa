package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryRecord struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance and for tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

// NewMemoryStore constructs an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord), now: time.Now}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	record, ok := s.records[id]
	if ok && !s.now().Before(record.expiresAt) {
		delete(s.records, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var data Data
	if err := json.Unmarshal(record.payload, &data); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &data, nil
}

// Save implements Store. Data is stored encoded so later mutations by the
// caller do not leak into the store.
func (s *MemoryStore) Save(_ context.Context, id string, data *Data, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	s.mu.Lock()
	s.records[id] = memoryRecord{payload: payload, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// CleanupExpired removes up to limit expired sessions. A non-positive limit
// removes them all.
func (s *MemoryStore) CleanupExpired(_ context.Context, limit int) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	removed := 0
	for id, record := range s.records {
		if now.Before(record.expiresAt) {
			continue
		}
		delete(s.records, id)
		removed++
		if removed >= limit {
			break
		}
	}
	return removed
}

// Len reports how many sessions are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
