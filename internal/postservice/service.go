// Package postservice answers read requests against the content index and
// keeps the search engine in step with it.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/posts"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/search"
)

const (
	// MaxLimit caps page sizes and search result counts.
	MaxLimit = 100
	// RelatedLimit is the number of related posts returned with a post.
	RelatedLimit = 3
)

// ListQuery filters and paginates a post listing.
type ListQuery struct {
	Tag      string
	Featured bool
	Page     int // 1-based; < 1 means 1
	Limit    int // <= 0 means the configured page size
}

// Page is one page of a post listing.
type Page struct {
	Posts []models.PostMeta `json:"posts"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Pages int               `json:"pages"`
}

// PostDetail is a post with its rendered body and related posts.
type PostDetail struct {
	Post    models.Post       `json:"post"`
	HTML    string            `json:"html"`
	Related []models.PostMeta `json:"related"`
}

// YearArchive is one year of the archive.
type YearArchive struct {
	Year  int               `json:"year"`
	Posts []models.PostMeta `json:"posts"`
}

// FailureInfo describes a file skipped by the last build.
type FailureInfo struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// RefreshResult summarises a rebuild.
type RefreshResult struct {
	Posts    int `json:"posts"`
	Failures int `json:"failures"`
}

// Status describes the current snapshot.
type Status struct {
	Posts      int           `json:"posts"`
	Failures   []FailureInfo `json:"failures"`
	BuiltAt    time.Time     `json:"built_at"`
	SearchDocs int           `json:"search_docs"`
}

// Service coordinates the index, the search engine and Markdown rendering.
type Service struct {
	index    *posts.Index
	engine   search.Engine
	renderer *render.Renderer
	perPage  int
	logger   *slog.Logger
}

// NewService creates a service and registers a refresh hook that reindexes
// engine whenever the content changes.
func NewService(idx *posts.Index, engine search.Engine, perPage int, logger *slog.Logger) *Service {
	if perPage <= 0 {
		perPage = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		index:    idx,
		engine:   engine,
		renderer: render.New(),
		perPage:  perPage,
		logger:   logger,
	}
	idx.OnRefresh(func(ctx context.Context, snap *posts.Snapshot) {
		if err := s.reindex(ctx, snap); err != nil {
			s.logger.Warn("search: reindex failed", slog.String("error", err.Error()))
		}
	})
	return s
}

func (s *Service) reindex(ctx context.Context, snap *posts.Snapshot) error {
	docs := search.Documents(snap.All(), s.renderer)
	if err := s.engine.Rebuild(ctx, docs); err != nil {
		return err
	}
	s.logger.Debug("search: reindexed", slog.Int("docs", len(docs)))
	return nil
}

// Snapshot returns the current index snapshot.
func (s *Service) Snapshot(ctx context.Context) (*posts.Snapshot, error) {
	return s.index.Snapshot(ctx)
}

// List returns one page of published posts, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) (*Page, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	list := snap.All()
	if strings.TrimSpace(q.Tag) != "" {
		list = snap.ByTag(q.Tag)
	}
	if q.Featured {
		featured := list[:0]
		for _, p := range list {
			if p.Featured {
				featured = append(featured, p)
			}
		}
		list = featured
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.perPage
	}
	limit = min(limit, MaxLimit)
	page := max(q.Page, 1)

	total := len(list)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)

	return &Page{
		Posts: posts.MetaOf(list[start:end]),
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
	}, nil
}

// Meta returns the metadata projection of every published post.
func (s *Service) Meta(ctx context.Context) ([]models.PostMeta, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Meta(), nil
}

// Get returns the post with slug, rendered to HTML.
func (s *Service) Get(ctx context.Context, slug string) (*PostDetail, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.BySlug(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	html, err := s.renderer.HTML(p.Content)
	if err != nil {
		return nil, err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &PostDetail{
		Post:    p,
		HTML:    html,
		Related: posts.MetaOf(snap.Related(p, RelatedLimit)),
	}, nil
}

// Featured returns the featured posts.
func (s *Service) Featured(ctx context.Context) ([]models.PostMeta, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return posts.MetaOf(snap.Featured()), nil
}

// Tags returns the tag index.
func (s *Service) Tags(ctx context.Context) ([]models.TagCount, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tags(), nil
}

// ByTag returns the posts carrying tag, compared case-insensitively.
func (s *Service) ByTag(ctx context.Context, tag string) ([]models.PostMeta, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return posts.MetaOf(snap.ByTag(tag)), nil
}

// Archive returns the posts grouped by year, newest year first.
func (s *Service) Archive(ctx context.Context) ([]YearArchive, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	groups := snap.ByYear()
	out := make([]YearArchive, len(groups))
	for i, g := range groups {
		out[i] = YearArchive{Year: g.Year, Posts: posts.MetaOf(g.Posts)}
	}
	return out, nil
}

// Search runs a full-text query. A blank or unparseable query is invalid input.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidInput)
	}
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	// The index may have been built before the hook was registered.
	if s.engine.Count() == 0 && snap.Len() > 0 {
		if err := s.reindex(ctx, snap); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	res, err := s.engine.Search(ctx, query, min(limit, MaxLimit))
	if errors.Is(err, search.ErrBadQuery) {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return res, err
}

// Refresh rebuilds the index from disk.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	snap, err := s.index.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Posts: snap.Len(), Failures: len(snap.Failures())}, nil
}

// Status describes the current snapshot and its build failures.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	snap, err := s.index.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	failures := snap.Failures()
	infos := make([]FailureInfo, len(failures))
	for i, f := range failures {
		infos[i] = FailureInfo{Path: f.Path, Error: f.Error()}
	}
	return &Status{
		Posts:      snap.Len(),
		Failures:   infos,
		BuiltAt:    snap.BuiltAt(),
		SearchDocs: s.engine.Count(),
	}, nil
}
