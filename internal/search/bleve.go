package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Bleve is an in-memory Bleve index. Rebuild swaps in a freshly built index
// so searches never see a half-populated one.
type Bleve struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewBleve creates an empty in-memory index.
func NewBleve() (*Bleve, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("search: create index: %w", err)
	}
	return &Bleve{index: idx}, nil
}

// buildIndexMapping indexes every text field with the English analyzer so
// "gophers" finds "gopher". Slugs are stored but not searchable.
func buildIndexMapping() mapping.IndexMapping {
	english := bleve.NewTextFieldMapping()
	english.Analyzer = "en"

	slug := bleve.NewTextFieldMapping()
	slug.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("slug", slug)
	docMapping.AddFieldMappingsAt("title", english)
	docMapping.AddFieldMappingsAt("description", english)
	docMapping.AddFieldMappingsAt("tags", english)
	docMapping.AddFieldMappingsAt("body", english)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = "en"
	return indexMapping
}

// Rebuild implements Engine.
func (b *Bleve) Rebuild(ctx context.Context, docs []Document) error {
	next, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}

	batch := next.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			next.Close()
			return err
		}
		tags := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			tags[i] = strings.ToLower(strings.TrimSpace(t))
		}
		fields := map[string]any{
			"slug":        d.Slug,
			"title":       d.Title,
			"description": d.Description,
			"tags":        tags,
			"body":        d.Body,
		}
		if err := batch.Index(d.Slug, fields); err != nil {
			next.Close()
			return fmt.Errorf("search: batch index %s: %w", d.Slug, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		next.Close()
		return fmt.Errorf("search: commit batch: %w", err)
	}

	b.mu.Lock()
	prev := b.index
	b.index = next
	b.mu.Unlock()
	return prev.Close()
}

// Search implements Engine. The query uses Bleve's query string syntax:
// quoted phrases, +required and -excluded terms, field:value and fuzzy~.
func (b *Bleve) Search(ctx context.Context, queryStr string, limit int) ([]Result, error) {
	out := []Result{}
	if strings.TrimSpace(queryStr) == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := bleve.NewQueryStringQuery(queryStr)
	if _, err := query.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("body")
	req.Highlight.AddField("description")
	req.Fields = []string{"slug", "title", "description", "body"}

	b.mu.RLock()
	defer b.mu.RUnlock()
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	for _, hit := range res.Hits {
		r := Result{Slug: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			r.Title = title
		}
		switch {
		case len(hit.Fragments["body"]) > 0:
			r.Snippet = hit.Fragments["body"][0]
		case len(hit.Fragments["description"]) > 0:
			r.Snippet = hit.Fragments["description"][0]
		default:
			desc, _ := hit.Fields["description"].(string)
			body, _ := hit.Fields["body"].(string)
			r.Snippet = fallbackSnippet(desc, body)
		}
		out = append(out, r)
	}
	return out, nil
}

// Count implements Engine.
func (b *Bleve) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, err := b.index.DocCount()
	if err != nil {
		return 0
	}
	return int(n)
}

// Close implements Engine.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
