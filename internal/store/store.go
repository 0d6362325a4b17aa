// Package store persists flashcards in SQLite with an FTS5 index for keyword
// search.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register the pure Go sqlite driver

	"finitefield.org/flashcards/internal/deck"
)

const driverName = "sqlite"

// ErrNotFound is returned when no card matches the criteria.
var ErrNotFound = errors.New("store: no matching flashcard")

const schema = `
CREATE TABLE IF NOT EXISTS flashcards (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT,
	subcategory TEXT,
	question_html TEXT NOT NULL,
	answer_html TEXT NOT NULL,
	image_only INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS flashcards_category_idx ON flashcards (category, subcategory);
CREATE VIRTUAL TABLE IF NOT EXISTS flashcards_fts
	USING fts5(id UNINDEXED, category, subcategory, question_html, answer_html);
`

// Store is the SQLite flashcard repository.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu      sync.Mutex
	onClear []func()
}

// Open opens (creating when needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serialises writers; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	s := &Store{db: db, logger: logger}
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database opened", zap.String("path", path))
	return s, nil
}

// Init creates the tables when they do not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertFlashcard stores a card and returns its id. Empty taxonomy fields are
// stored as NULL.
func (s *Store) InsertFlashcard(ctx context.Context, card deck.Flashcard) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO flashcards (category, subcategory, question_html, answer_html, image_only) VALUES (?, ?, ?, ?, ?)`,
		nullable(card.Category), nullable(card.Subcategory), card.QuestionHTML, card.AnswerHTML, card.ImageOnly,
	)
	if err != nil {
		return 0, fmt.Errorf("insert flashcard: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert flashcard: %w", err)
	}
	return id, nil
}

// Clear removes every card and its index entry.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM flashcards`, `DELETE FROM flashcards_fts`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear flashcards: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	s.logger.Info("cleared all flashcards")

	s.mu.Lock()
	hooks := append([]func(){}, s.onClear...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// OnClear registers fn to run after Clear succeeds, typically a cache
// invalidation.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	s.onClear = append(s.onClear, fn)
	s.mu.Unlock()
}

// PopulateFTS rebuilds the full-text index from the flashcards table.
func (s *Store) PopulateFTS(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fts: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flashcards_fts`); err != nil {
		return fmt.Errorf("reset fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO flashcards_fts (id, category, subcategory, question_html, answer_html)
		SELECT id, category, subcategory, question_html, answer_html FROM flashcards`); err != nil {
		return fmt.Errorf("populate fts: %w", err)
	}
	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards_fts`).Scan(&count); err != nil {
		return fmt.Errorf("count fts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fts: %w", err)
	}
	s.logger.Info("populated full-text index", zap.Int64("cards", count))
	return nil
}

// TotalCount returns the number of cards in the deck.
func (s *Store) TotalCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flashcards: %w", err)
	}
	return n, nil
}

// IsEmpty reports whether the deck holds no cards.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.TotalCount(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Categories lists distinct categories in name order.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM flashcards WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Subcategories lists distinct subcategories with their owning category,
// ordered by name. A nil categories slice lists them all.
func (s *Store) Subcategories(ctx context.Context, categories []string) ([]deck.Subcategory, error) {
	query := `SELECT DISTINCT subcategory, category FROM flashcards WHERE subcategory IS NOT NULL AND category IS NOT NULL`
	var args []any
	if categories != nil {
		if len(categories) == 0 {
			return nil, nil
		}
		query += ` AND category IN (` + placeholders(len(categories)) + `)`
		for _, c := range categories {
			args = append(args, c)
		}
	}
	query += ` ORDER BY subcategory, category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subcategories: %w", err)
	}
	defer rows.Close()

	var out []deck.Subcategory
	for rows.Next() {
		var sub deck.Subcategory
		if err := rows.Scan(&sub.Name, &sub.Category); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// CountFiltered counts the cards matching c.
func (s *Store) CountFiltered(ctx context.Context, c deck.Criteria) (int64, error) {
	where, args := filterClause(c)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flashcards WHERE 1=1`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count filtered flashcards: %w", err)
	}
	return n, nil
}

// RandomFiltered returns a random card matching c whose id is not in
// exclude, or ErrNotFound.
func (s *Store) RandomFiltered(ctx context.Context, exclude []int64, c deck.Criteria) (deck.Flashcard, error) {
	where, args := filterClause(c)
	if len(exclude) > 0 {
		where += ` AND id NOT IN (` + placeholders(len(exclude)) + `)`
		for _, id := range exclude {
			args = append(args, id)
		}
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, subcategory, question_html, answer_html, image_only FROM flashcards WHERE 1=1`+where+` ORDER BY RANDOM() LIMIT 1`,
		args...)

	var (
		card        deck.Flashcard
		category    sql.NullString
		subcategory sql.NullString
	)
	err := row.Scan(&card.ID, &category, &subcategory, &card.QuestionHTML, &card.AnswerHTML, &card.ImageOnly)
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Flashcard{}, ErrNotFound
	}
	if err != nil {
		return deck.Flashcard{}, fmt.Errorf("query filtered flashcard: %w", err)
	}
	card.Category = category.String
	card.Subcategory = subcategory.String
	return card, nil
}

// filterClause renders c as " AND ..." conditions. An empty non-nil category
// list selects only uncategorised cards; an empty subcategory list does not
// filter.
func filterClause(c deck.Criteria) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	if match := MatchExpression(c.Keywords); match != "" {
		b.WriteString(` AND id IN (SELECT id FROM flashcards_fts WHERE flashcards_fts MATCH ?)`)
		args = append(args, match)
	}
	if c.Categories != nil {
		if len(c.Categories) == 0 {
			b.WriteString(` AND category IS NULL`)
		} else {
			b.WriteString(` AND category IN (` + placeholders(len(c.Categories)) + `)`)
			for _, cat := range c.Categories {
				args = append(args, cat)
			}
		}
	}
	if len(c.Subcategories) > 0 {
		b.WriteString(` AND subcategory IN (` + placeholders(len(c.Subcategories)) + `)`)
		for _, sub := range c.Subcategories {
			args = append(args, sub)
		}
	}
	if !c.IncludeImages {
		b.WriteString(` AND image_only = 0`)
	}
	return b.String(), args
}

// MatchExpression turns keywords into an FTS5 query requiring every term.
// Terms are quoted so operators and punctuation are matched literally.
func MatchExpression(keywords []string) string {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(k, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " AND ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
