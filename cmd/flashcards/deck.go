package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/config"
	"finitefield.org/flashcards/internal/content"
)

// deckStore is what prepareDeck needs from the store.
type deckStore interface {
	content.Sink
	IsEmpty(ctx context.Context) (bool, error)
	PopulateFTS(ctx context.Context) error
	TotalCount(ctx context.Context) (int64, error)
}

// SetupError explains how to provide deck content when none could be found.
type SetupError struct {
	MarkdownPath   string
	MarkdownStatus content.DirStatus
	ImagePath      string
	ImageStatus    content.DirStatus
}

func (e *SetupError) Error() string {
	var b strings.Builder
	b.WriteString("no deck content found\n\n")
	fmt.Fprintf(&b, "  markdown directory %q: %s\n", e.MarkdownPath, e.MarkdownStatus)
	fmt.Fprintf(&b, "  image directory    %q: %s\n\n", e.ImagePath, e.ImageStatus)
	b.WriteString("Create at least one of them, then restart:\n")
	b.WriteString("  - markdown files (*.md) with blocks like\n")
	b.WriteString("      Question : Category - Subcategory - What is ...?\n")
	b.WriteString("      Answer : ...\n")
	b.WriteString("  - images (*.png, *.webp), each becoming an image card\n")
	b.WriteString("Paths can be set with FLASHCARDS_MD_PATH and FLASHCARDS_IMG_PATH.")
	return b.String()
}

// prepareDeck loads content into an empty database and builds the search
// index. A populated database is used as is.
func prepareDeck(ctx context.Context, st deckStore, deck config.DeckConfig, logger *zap.Logger) error {
	empty, err := st.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		total, err := st.TotalCount(ctx)
		if err != nil {
			return err
		}
		logger.Info("using existing deck database", zap.String("path", deck.DatabasePath), zap.Int64("cards", total))
		return nil
	}

	mdStatus := content.ValidateDir(deck.MarkdownPath)
	imgStatus := content.ValidateDir(deck.ImagePath)
	if mdStatus != content.DirValid && imgStatus != content.DirValid {
		return &SetupError{
			MarkdownPath:   deck.MarkdownPath,
			MarkdownStatus: mdStatus,
			ImagePath:      deck.ImagePath,
			ImageStatus:    imgStatus,
		}
	}

	loaded := 0
	if mdStatus == content.DirValid {
		n, err := content.NewMarkdownLoader(st, logger).Load(ctx, deck.MarkdownPath)
		if err != nil {
			return err
		}
		loaded += n
	} else {
		logger.Warn("skipping markdown directory", zap.String("path", deck.MarkdownPath), zap.Stringer("status", mdStatus))
	}
	if imgStatus == content.DirValid {
		n, err := content.NewImageLoader(st, logger).Load(ctx, deck.ImagePath)
		if err != nil {
			return err
		}
		loaded += n
	} else {
		logger.Warn("skipping image directory", zap.String("path", deck.ImagePath), zap.Stringer("status", imgStatus))
	}

	if err := st.PopulateFTS(ctx); err != nil {
		return err
	}
	logger.Info("deck loaded", zap.Int("cards", loaded))
	return nil
}
