package content

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"finitefield.org/flashcards/internal/deck"
)

// ImageURLPrefix is the route deck images are served under.
const ImageURLPrefix = "/deck/img/"

var imageExtensions = map[string]struct{}{
	".png":  {},
	".webp": {},
}

// ImageLoader turns every image below a directory into an image-only card.
type ImageLoader struct {
	sink   Sink
	logger *zap.Logger
}

// NewImageLoader constructs a loader writing to sink.
func NewImageLoader(sink Sink, logger *zap.Logger) *ImageLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageLoader{sink: sink, logger: logger}
}

// Load walks dir and inserts one card per image. It returns the number of
// cards inserted.
func (l *ImageLoader) Load(ctx context.Context, dir string) (int, error) {
	l.logger.Info("loading image flashcards", zap.String("dir", dir))

	total := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			l.logger.Warn("skipping unreadable path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsImage(p) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			l.logger.Warn("failed to resolve image path", zap.String("path", p), zap.Error(err))
			return nil
		}
		if _, err := l.sink.InsertFlashcard(ctx, ImageCard(filepath.ToSlash(rel))); err != nil {
			l.logger.Warn("failed to insert image flashcard", zap.String("path", p), zap.Error(err))
			return nil
		}
		total++
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("walk %s: %w", dir, err)
	}

	l.logger.Info("loaded image flashcards", zap.Int("cards", total))
	return total, nil
}

// IsImage reports whether the file extension is a supported card image.
func IsImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ImageCard builds the card for an image at rel, a slash-separated path
// relative to the image directory.
func ImageCard(rel string) deck.Flashcard {
	escaped := make([]string, 0, strings.Count(rel, "/")+1)
	for _, seg := range strings.Split(rel, "/") {
		escaped = append(escaped, url.PathEscape(seg))
	}
	src := ImageURLPrefix + path.Join(escaped...)
	return deck.Flashcard{
		QuestionHTML: "<h3>Question :</h3>\n",
		AnswerHTML: fmt.Sprintf("<h3>Answer :</h3>\n<img src=\"%s\" alt=\"%s\" class=\"img-fluid\" loading=\"lazy\">",
			html.EscapeString(src), html.EscapeString(path.Base(rel))),
		ImageOnly: true,
	}
}
