// Package render turns post bodies into HTML and plain text.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer with GitHub-flavoured Markdown and heading IDs.
// Raw HTML in the source is omitted from the output.
func New() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)}
}

// HTML renders src to HTML.
func (r *Renderer) HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}

// PlainText renders src and returns its visible text with whitespace collapsed.
func (r *Renderer) PlainText(src string) (string, error) {
	html, err := r.HTML(src)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("render: parse html: %w", err)
	}
	// Block elements are not separated by whitespace in Text().
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, pre, blockquote, td, th").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// Snippet shortens text to at most n runes, cutting at a word boundary when
// possible and marking the cut with "...".
func Snippet(text string, n int) string {
	text = strings.TrimSpace(text)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if !unicode.IsSpace(runes[n]) {
		if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " \t\n.,;:") + "..."
}
