// Package parser turns a raw content file into a post record: it splits the
// YAML front-matter from the Markdown body, decodes the recognised keys with
// per-field defaults, and derives the slug and reading time.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/models"
)

// DefaultTitle is used when the front-matter has no title.
const DefaultTitle = "Untitled"

var (
	// ErrFrontmatter is returned when the front-matter block is not a valid YAML mapping.
	ErrFrontmatter = errors.New("invalid front-matter")
	// ErrInvalidDate is returned when date or modifiedDate cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrEmptySlug is returned when neither the front-matter nor the file name yield a slug.
	ErrEmptySlug = errors.New("empty slug")
)

// dateLayouts are tried in order; layouts without a zone are read as UTC.
// Month, day and time fields may be unpadded, as in YAML timestamps, and the
// fraction is optional.
var dateLayouts = []string{
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2T15:4:5.999999999",
	"2006-1-2t15:4:5.999999999",
	"2006-1-2 15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999 Z07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2 15:4",
	"2006-1-2",
}

// Parser converts content files into posts.
type Parser struct {
	// Now supplies the date of posts without one.
	Now func() time.Time
}

// New returns a Parser using the wall clock.
func New() *Parser {
	return &Parser{Now: time.Now}
}

// Parse converts one content file into a post using the wall clock.
func Parse(filePath string, data []byte) (models.Post, error) {
	return New().Parse(filePath, data)
}

// Parse converts one content file into a post. filePath is only used to
// derive the fallback slug and is stored on the result.
func (p *Parser) Parse(filePath string, data []byte) (models.Post, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", filePath, err)
	}

	slug := stringField(fm, "slug")
	if slug == "" {
		slug = slugFromPath(filePath)
	}
	if slug == "" {
		return models.Post{}, fmt.Errorf("%s: %w", filePath, ErrEmptySlug)
	}

	title := stringField(fm, "title")
	if title == "" {
		title = DefaultTitle
	}

	date, ok, err := dateField(fm, "date")
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: date: %w", filePath, err)
	}
	if !ok {
		date = p.now().UTC()
	}

	var modified *time.Time
	if md, ok, err := dateField(fm, "modifiedDate"); err != nil {
		return models.Post{}, fmt.Errorf("%s: modifiedDate: %w", filePath, err)
	} else if ok {
		modified = &md
	}

	return models.Post{
		Slug:         slug,
		Title:        title,
		Description:  stringField(fm, "description"),
		Date:         date,
		ModifiedDate: modified,
		Tags:         tagsField(fm, "tags"),
		Featured:     boolField(fm, "featured"),
		Draft:        boolField(fm, "draft"),
		HeroImage:    stringField(fm, "heroImage"),
		ReadingTime:  ReadingTime(body),
		Content:      body,
		Path:         filePath,
	}, nil
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// splitFrontmatter separates YAML front-matter from the Markdown body. The
// block opens and closes with lines consisting of exactly "---". Without an
// opening line, or with no closing line, the entire content is body.
func splitFrontmatter(data []byte) (map[string]yaml.Node, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	first, rest, ok := bytes.Cut(trimmed, []byte("\n"))
	if !ok || !isDelimiter(first) {
		return nil, string(data), nil
	}

	var (
		yamlBlock []byte
		body      []byte
		found     bool
	)
	for offset, remaining := 0, rest; len(remaining) > 0; {
		line, next, _ := bytes.Cut(remaining, []byte("\n"))
		if isDelimiter(line) {
			yamlBlock, body, found = rest[:offset], next, true
			break
		}
		offset += len(line) + 1
		remaining = next
	}
	if !found {
		// Unterminated block: everything is body.
		return nil, string(data), nil
	}

	var fm map[string]yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFrontmatter, err)
	}
	return fm, strings.TrimLeft(string(body), "\n\r"), nil
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, "\r")) == "---"
}

// scalar returns the non-null scalar node stored under key.
func scalar(fm map[string]yaml.Node, key string) (*yaml.Node, bool) {
	n, ok := fm[key]
	if !ok || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return nil, false
	}
	return &n, true
}

func stringField(fm map[string]yaml.Node, key string) string {
	n, ok := scalar(fm, key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

func boolField(fm map[string]yaml.Node, key string) bool {
	n, ok := scalar(fm, key)
	if !ok {
		return false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false
	}
	return b
}

// tagsField accepts a YAML list of scalars or a single scalar. Blank entries
// are dropped; anything else yields an empty list.
func tagsField(fm map[string]yaml.Node, key string) []string {
	tags := []string{}
	n, ok := fm[key]
	if !ok {
		return tags
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag != "!!null" {
			if s := strings.TrimSpace(n.Value); s != "" {
				tags = append(tags, s)
			}
		}
	case yaml.SequenceNode:
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				continue
			}
			if s := strings.TrimSpace(item.Value); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// dateField returns ok=false for a missing or blank value and an error for a
// value that is neither a YAML timestamp nor accepted by dateLayouts.
func dateField(fm map[string]yaml.Node, key string) (time.Time, bool, error) {
	if n, ok := scalar(fm, key); ok && n.Tag == "!!timestamp" {
		var t time.Time
		if err := n.Decode(&t); err == nil {
			return t.UTC(), true, nil
		}
	}
	raw := stringField(fm, key)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// ParseDate parses a front-matter date and normalises it to UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// slugFromPath returns the base name of filePath without its content extension.
func slugFromPath(filePath string) string {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	for _, ext := range []string{".mdx", ".md"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}
