package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageLoader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "diagram.png"), "png")
	writeFile(t, filepath.Join(dir, "charts", "Bar Chart.WEBP"), "webp")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip")
	writeFile(t, filepath.Join(dir, "photo.jpg"), "skip")

	sink := &memorySink{}
	n, err := NewImageLoader(sink, nil).Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	var answers []string
	for _, card := range sink.cards {
		require.True(t, card.ImageOnly)
		require.False(t, card.HasCategory())
		answers = append(answers, card.AnswerHTML)
	}
	require.Contains(t, answers[0]+answers[1], `src="/deck/img/diagram.png"`)
	require.Contains(t, answers[0]+answers[1], `src="/deck/img/charts/Bar%20Chart.WEBP"`)
}

func TestImageCard(t *testing.T) {
	card := ImageCard("a/b.png")
	require.True(t, card.ImageOnly)
	require.Contains(t, card.QuestionHTML, "Question :")
	require.Contains(t, card.AnswerHTML, `<img src="/deck/img/a/b.png"`)
	require.True(t, IsImage("X.PNG"))
	require.False(t, IsImage("x.gif"))
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	require.Equal(t, DirValid, ValidateDir(dir))
	require.Equal(t, DirMissing, ValidateDir(filepath.Join(dir, "absent")))
	require.Equal(t, DirNotADirectory, ValidateDir(file))
	require.Equal(t, "not a directory", DirNotADirectory.String())
}
