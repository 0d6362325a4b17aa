// Package reveal models the flashcard page interaction: the answer starts
// hidden, the first activation reveals it and the next one moves on to a new
// card.
package reveal

import "sync"

// Button labels.
const (
	LabelShowAnswer = "Show Answer"
	LabelNext       = "Next"
)

// KeyEnter is the key name that triggers the primary action.
const KeyEnter = "Enter"

// Focus identifies which element holds keyboard focus when a key is pressed.
type Focus int

const (
	FocusNone Focus = iota
	FocusAction
	FocusBack
)

// Card describes the card shown on the page.
type Card struct {
	// NextURL is the action button target.
	NextURL string
	// ImageOnly cards have nothing to reveal and start revealed.
	ImageOnly bool
}

// Navigator performs navigation to a URL.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(url string) { f(url) }

// Controller tracks whether the answer is visible.
type Controller struct {
	mu       sync.Mutex
	card     Card
	nav      Navigator
	revealed bool
}

// New returns a controller for card. A nil navigator discards navigation.
func New(card Card, nav Navigator) *Controller {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &Controller{card: card, nav: nav, revealed: card.ImageOnly}
}

// Revealed reports whether the answer is visible.
func (c *Controller) Revealed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revealed
}

// AnswerHidden reports whether the answer container should be hidden.
func (c *Controller) AnswerHidden() bool {
	return !c.Revealed()
}

// Label returns the action button text.
func (c *Controller) Label() string {
	if c.Revealed() {
		return LabelNext
	}
	return LabelShowAnswer
}

// Click handles activation of the action button. Before the answer is shown
// it reveals and reports that the link's default navigation is prevented;
// afterwards the link is followed normally.
func (c *Controller) Click() (prevented bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.revealed {
		return false
	}
	c.revealed = true
	return true
}

// KeyDown handles a page-level key press. Enter performs the primary action
// unless the back button has focus, in which case the browser follows the
// focused link.
func (c *Controller) KeyDown(key string, focus Focus) (prevented bool) {
	if key != KeyEnter || focus == FocusBack {
		return false
	}
	c.mu.Lock()
	if !c.revealed {
		c.revealed = true
		c.mu.Unlock()
		return true
	}
	url := c.card.NextURL
	c.mu.Unlock()
	c.nav.Navigate(url)
	return true
}
