package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/deck"
)

var (
	commentPattern  = regexp.MustCompile(`(?s)<!--.*?-->`)
	questionPattern = regexp.MustCompile(`(?mi)^\s*Question\s+:`)
	answerPattern   = regexp.MustCompile(`(?mi)^\s*Answer\s+:`)
	// Fields are separated by space-dash-space so hyphenated names survive.
	headerPattern = regexp.MustCompile(`^\s*(.+?)\s-\s(.+?)\s-\s((?s:.+))`)
)

// Block is one question/answer pair as written in a markdown file.
type Block struct {
	Category    string
	Subcategory string
	Question    string
	Answer      string
}

// ParseBlocks splits a markdown document into question/answer blocks. HTML
// comments are dropped, a question without an answer is ignored, and so is a
// pair whose question and answer are both empty. Questions without a
// "CATEGORY - SUBCATEGORY - text" header come back without taxonomy.
func ParseBlocks(doc string) []Block {
	cleaned := commentPattern.ReplaceAllString(doc, "")
	parts := questionPattern.Split(cleaned, -1)

	var blocks []Block
	for _, part := range parts[1:] {
		loc := answerPattern.FindStringIndex(part)
		if loc == nil {
			continue
		}
		question := strings.TrimSpace(part[:loc[0]])
		answer := strings.TrimSpace(part[loc[1]:])

		b := Block{Question: question, Answer: answer}
		if m := headerPattern.FindStringSubmatch(question); m != nil {
			b.Category = strings.TrimSpace(m[1])
			b.Subcategory = strings.TrimSpace(m[2])
			b.Question = strings.TrimSpace(m[3])
		}
		if b.Question == "" && b.Answer == "" {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// MarkdownLoader loads *.md files recursively into a Sink.
type MarkdownLoader struct {
	sink     Sink
	renderer *Renderer
	logger   *zap.Logger
}

// NewMarkdownLoader constructs a loader writing to sink.
func NewMarkdownLoader(sink Sink, logger *zap.Logger) *MarkdownLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkdownLoader{sink: sink, renderer: NewRenderer(), logger: logger}
}

// Load walks dir and inserts every card found. Files that fail to read or
// parse are logged and skipped. It returns the number of cards inserted.
func (l *MarkdownLoader) Load(ctx context.Context, dir string) (int, error) {
	l.logger.Info("loading markdown flashcards", zap.String("dir", dir))

	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		n, err := l.loadFile(ctx, path)
		if err != nil {
			l.logger.Warn("failed to process markdown file", zap.String("path", path), zap.Error(err))
			return nil
		}
		l.logger.Debug("loaded markdown file", zap.String("path", path), zap.Int("cards", n))
		total += n
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("walk %s: %w", dir, err)
	}

	l.logger.Info("loaded markdown flashcards", zap.Int("cards", total))
	return total, nil
}

func (l *MarkdownLoader) loadFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read file: %w", err)
	}

	count := 0
	for _, b := range ParseBlocks(string(raw)) {
		if b.Category == "" {
			l.logger.Warn("question without category header", zap.String("path", path), zap.String("question", truncate(b.Question, 120)))
		}
		q, err := l.renderer.Render("### Question :\n" + b.Question)
		if err != nil {
			return count, err
		}
		a, err := l.renderer.Render("### Answer :\n" + b.Answer)
		if err != nil {
			return count, err
		}
		card := deck.Flashcard{
			Category:     b.Category,
			Subcategory:  b.Subcategory,
			QuestionHTML: q,
			AnswerHTML:   a,
		}
		if _, err := l.sink.InsertFlashcard(ctx, card); err != nil {
			return count, fmt.Errorf("insert flashcard: %w", err)
		}
		count++
	}
	return count, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
