package reveal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingNav struct{ urls []string }

func (n *recordingNav) Navigate(url string) { n.urls = append(n.urls, url) }

func TestClickRevealsThenFollowsLink(t *testing.T) {
	nav := &recordingNav{}
	c := New(Card{NextURL: "/practice"}, nav)
	require.True(t, c.AnswerHidden())
	require.Equal(t, LabelShowAnswer, c.Label())

	require.True(t, c.Click(), "first click must be intercepted")
	require.False(t, c.AnswerHidden())
	require.Equal(t, LabelNext, c.Label())

	require.False(t, c.Click(), "second click follows the link")
	require.Empty(t, nav.urls, "link navigation is left to the browser")
}

func TestImageOnlyStartsRevealed(t *testing.T) {
	c := New(Card{NextURL: "/practice", ImageOnly: true}, nil)
	require.True(t, c.Revealed())
	require.Equal(t, LabelNext, c.Label())
	require.False(t, c.Click())
}

func TestEnterRevealsThenNavigates(t *testing.T) {
	nav := &recordingNav{}
	c := New(Card{NextURL: "/practice"}, nav)

	require.True(t, c.KeyDown(KeyEnter, FocusNone))
	require.True(t, c.Revealed())
	require.Empty(t, nav.urls)

	require.True(t, c.KeyDown(KeyEnter, FocusAction))
	require.Equal(t, []string{"/practice"}, nav.urls)
}

func TestEnterIgnoredOnBackButton(t *testing.T) {
	nav := &recordingNav{}
	c := New(Card{NextURL: "/practice"}, nav)

	require.False(t, c.KeyDown(KeyEnter, FocusBack))
	require.False(t, c.Revealed())

	c.Click()
	require.False(t, c.KeyDown(KeyEnter, FocusBack))
	require.Empty(t, nav.urls)
}

func TestOtherKeysIgnored(t *testing.T) {
	c := New(Card{NextURL: "/practice"}, nil)
	require.False(t, c.KeyDown(" ", FocusNone))
	require.False(t, c.KeyDown("Escape", FocusAction))
	require.False(t, c.Revealed())
}
