// Package content turns deck sources on disk into flashcards: markdown files
// holding "Question :" / "Answer :" blocks and bare images.
package content

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"finitefield.org/flashcards/internal/deck"
)

// Sink receives parsed flashcards.
type Sink interface {
	InsertFlashcard(ctx context.Context, card deck.Flashcard) (int64, error)
}

// DirStatus describes whether a content directory can be loaded.
type DirStatus int

// Directory statuses reported by ValidateDir.
const (
	DirValid DirStatus = iota
	DirMissing
	DirNotADirectory
	DirUnreadable
)

// String returns the status name used in logs and setup instructions.
func (s DirStatus) String() string {
	switch s {
	case DirValid:
		return "valid"
	case DirMissing:
		return "missing"
	case DirNotADirectory:
		return "not a directory"
	case DirUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// ValidateDir checks that path is an existing, readable directory.
func ValidateDir(path string) DirStatus {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DirMissing
	}
	if err != nil {
		return DirUnreadable
	}
	if !info.IsDir() {
		return DirNotADirectory
	}
	if _, err := os.ReadDir(path); err != nil {
		return DirUnreadable
	}
	return DirValid
}
