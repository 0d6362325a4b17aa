// Package practice drives the practice loop: it draws random cards matching
// the session's filters without repeating one until every match was shown.
package practice

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/deck"
	"finitefield.org/flashcards/internal/filterform"
	"finitefield.org/flashcards/internal/session"
	"finitefield.org/flashcards/internal/store"
)

// MessageNoCards is flashed on the landing page when the filters match nothing.
const MessageNoCards = "No cards match your filters. Please adjust your selection."

// ErrNoCards is returned when the session's filters match no card.
var ErrNoCards = errors.New(MessageNoCards)

// Repository is the subset of the store the practice loop needs.
type Repository interface {
	CountFiltered(ctx context.Context, c deck.Criteria) (int64, error)
	RandomFiltered(ctx context.Context, exclude []int64, c deck.Criteria) (deck.Flashcard, error)
}

// Result is the card to show and the size of the filtered deck.
type Result struct {
	Card  deck.Flashcard
	Count int64
}

// Service draws practice cards.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Next picks the next card for data and records it as seen. Callers must
// persist data afterwards, including when ErrNoCards is returned.
func (s *Service) Next(ctx context.Context, data *session.Data) (Result, error) {
	count, err := s.count(ctx, data)
	if err != nil {
		return Result{}, err
	}
	if count == 0 {
		return Result{}, ErrNoCards
	}

	if int64(len(data.SeenIDs)) >= count {
		data.SeenIDs = nil
	}

	card, err := s.repo.RandomFiltered(ctx, data.SeenIDs, data.Filter)
	if errors.Is(err, store.ErrNotFound) && len(data.SeenIDs) > 0 {
		// The cached count is stale; start a new cycle.
		s.logger.Debug("practice: cycle exhausted early, resetting seen cards",
			zap.Int("seen", len(data.SeenIDs)), zap.Int64("cached_count", count))
		data.SeenIDs = nil
		data.FilteredCount = nil
		card, err = s.repo.RandomFiltered(ctx, nil, data.Filter)
	}
	if errors.Is(err, store.ErrNotFound) {
		data.FilteredCount = nil
		return Result{}, ErrNoCards
	}
	if err != nil {
		return Result{}, fmt.Errorf("draw practice card: %w", err)
	}

	data.MarkSeen(card.ID)
	return Result{Card: card, Count: count}, nil
}

func (s *Service) count(ctx context.Context, data *session.Data) (int64, error) {
	if data.FilteredCount != nil {
		return *data.FilteredCount, nil
	}
	n, err := s.repo.CountFiltered(ctx, data.Filter)
	if err != nil {
		return 0, fmt.Errorf("count practice cards: %w", err)
	}
	data.SetCount(n)
	return n, nil
}

// Apply stores the submitted filters and starts a new practice cycle.
func (s *Service) Apply(data *session.Data, sel filterform.Selection) {
	data.SetFilter(sel.Criteria())
}

// Flash records MessageNoCards on data for the landing page.
func Flash(data *session.Data) {
	data.Flash = MessageNoCards
}
