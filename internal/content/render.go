package content

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

const highlightStyle = "github"

// Renderer converts card markdown into sanitised HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds the markdown pipeline: GFM tables and strikethrough,
// footnotes, class-based code highlighting, then sanitising.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				highlighting.NewHighlighting(
					highlighting.WithStyle(highlightStyle),
					highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
				),
			),
			goldmark.WithRendererOptions(
				// Card authors may embed inline HTML; the policy below strips
				// anything unsafe.
				goldmarkHTML.WithUnsafe(),
			),
		),
		policy: newCardHTMLPolicy(),
	}
}

// Render converts markdown to sanitised HTML.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

func newCardHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("pre", "code", "span", "div", "img", "sup", "li", "a", "hr")
	policy.AllowAttrs("id").OnElements("li", "sup", "div")
	policy.AllowAttrs("role").OnElements("a", "div")
	policy.AllowAttrs("loading").OnElements("img")
	policy.AllowStandardURLs()
	policy.AllowRelativeURLs(true)
	return policy
}

var (
	highlightCSSOnce sync.Once
	highlightCSS     string
)

// HighlightCSS returns the stylesheet matching the classes emitted for
// highlighted code blocks.
func HighlightCSS() string {
	highlightCSSOnce.Do(func() {
		var buf strings.Builder
		formatter := chromahtml.New(chromahtml.WithClasses(true))
		if err := formatter.WriteCSS(&buf, styles.Get(highlightStyle)); err != nil {
			return
		}
		highlightCSS = buf.String()
	})
	return highlightCSS
}
