package posts

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

type cachedPost struct {
	checksum string
	post     models.Post
}

type parseResult struct {
	post     models.Post
	checksum string
	err      error
}

// Builder discovers and parses the content tree. Files whose checksum did not
// change since the previous build reuse their parsed post.
type Builder struct {
	store   storage.Provider
	parser  *parser.Parser
	logger  *slog.Logger
	workers int

	mu    sync.Mutex
	cache map[string]cachedPost // keyed by relative path
}

// NewBuilder creates a Builder. workers <= 0 uses GOMAXPROCS.
func NewBuilder(store storage.Provider, p *parser.Parser, logger *slog.Logger, workers int) *Builder {
	if p == nil {
		p = parser.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Builder{
		store:   store,
		parser:  p,
		logger:  logger,
		workers: workers,
		cache:   make(map[string]cachedPost),
	}
}

// Build lists and parses every content file and returns a new snapshot.
// Unreadable or unparseable files are logged, recorded as failures and
// skipped; only a failed listing or a cancelled ctx fails the build.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	files, err := b.store.List("")
	if err != nil {
		return nil, fmt.Errorf("posts: discover: %w", err)
	}

	results := make([]parseResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, f := range files {
		if c, ok := b.cache[f.Path]; ok && c.checksum == f.Checksum {
			results[i] = parseResult{post: c.post, checksum: c.checksum}
			continue
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = b.parseFile(f.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("posts: build: %w", err)
	}

	parsed := make([]models.Post, 0, len(results))
	var failures []FileError
	cache := make(map[string]cachedPost, len(results))
	fp := checksum.NewTree()

	for i, r := range results {
		path := files[i].Path
		if r.err != nil {
			b.logger.Warn("posts: skipping file", slog.String("path", path), slog.String("error", r.err.Error()))
			failures = append(failures, FileError{Path: path, Err: r.err})
			continue
		}
		parsed = append(parsed, r.post)
		cache[path] = cachedPost{checksum: r.checksum, post: r.post}
		fp.Add(path, r.checksum)
	}
	b.cache = cache

	snap := NewSnapshot(parsed, failures)
	snap.fingerprint = fp.Sum()
	b.logger.Debug("posts: built snapshot",
		slog.Int("files", len(files)),
		slog.Int("published", snap.Len()),
		slog.Int("failures", len(failures)))
	return snap, nil
}

func (b *Builder) parseFile(path string) parseResult {
	data, err := b.store.Read(path)
	if err != nil {
		return parseResult{err: err}
	}
	post, err := b.parser.Parse(path, data)
	if err != nil {
		return parseResult{err: err}
	}
	return parseResult{post: post, checksum: checksum.Sum(data)}
}
