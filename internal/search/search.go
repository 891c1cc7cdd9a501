// Package search provides full-text search over published posts. Engines hold
// everything in memory and are rebuilt from each new index snapshot.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
)

// ErrBadQuery is returned for queries the engine cannot parse.
var ErrBadQuery = errors.New("bad query")

// Engine names accepted by New.
const (
	EngineBleve  = "bleve"
	EngineSQLite = "sqlite"
)

// DefaultLimit applies when Search is called with limit <= 0.
const DefaultLimit = 20

// snippetLen is the rune length of snippets built from descriptions or bodies.
const snippetLen = 160

// Document is the searchable projection of a post.
type Document struct {
	Slug        string
	Title       string
	Description string
	Tags        []string
	Body        string // plain text
	Date        time.Time
}

// Result is one search hit.
type Result struct {
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Engine is a rebuildable full-text index.
type Engine interface {
	// Rebuild replaces the indexed documents.
	Rebuild(ctx context.Context, docs []Document) error
	// Search returns up to limit hits for query, best first. A blank query
	// returns no hits.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
	// Count returns the number of indexed documents.
	Count() int
	Close() error
}

// New creates the engine named kind. dsn is only used by the sqlite engine.
func New(kind, dsn string) (Engine, error) {
	switch kind {
	case "", EngineBleve:
		return NewBleve()
	case EngineSQLite:
		return OpenSQLite(dsn)
	default:
		return nil, fmt.Errorf("search: unknown engine %q", kind)
	}
}

// Documents converts posts to search documents. Bodies are rendered to plain
// text; a post whose body fails to render is indexed with its raw source.
// Only the first post per slug is kept, matching slug lookups.
func Documents(posts []models.Post, r *render.Renderer) []Document {
	seen := make(map[string]struct{}, len(posts))
	docs := make([]Document, 0, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.Slug]; dup {
			continue
		}
		seen[p.Slug] = struct{}{}
		body, err := r.PlainText(p.Content)
		if err != nil {
			body = p.Content
		}
		docs = append(docs, Document{
			Slug:        p.Slug,
			Title:       p.Title,
			Description: p.Description,
			Tags:        p.Tags,
			Body:        body,
			Date:        p.Date,
		})
	}
	return docs
}

func fallbackSnippet(description, body string) string {
	if description != "" {
		return render.Snippet(description, snippetLen)
	}
	return render.Snippet(body, snippetLen)
}
