package posts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// ReloadMode controls when the index rebuilds its snapshot.
type ReloadMode string

const (
	// ReloadWatch builds once and then on Refresh, normally driven by Watch.
	ReloadWatch ReloadMode = "watch"
	// ReloadAlways rebuilds on every Snapshot call.
	ReloadAlways ReloadMode = "always"
	// ReloadManual builds once and then only on explicit Refresh.
	ReloadManual ReloadMode = "manual"
)

// RefreshHook runs after a rebuild that changed the content fingerprint.
type RefreshHook func(ctx context.Context, snap *Snapshot)

// Index owns the current snapshot. Readers get the published snapshot without
// locking; rebuilds are serialised.
type Index struct {
	builder *Builder
	mode    ReloadMode
	logger  *slog.Logger

	current atomic.Pointer[Snapshot]

	mu    sync.Mutex
	hooks []RefreshHook
}

// Option configures an Index.
type Option func(*indexOptions)

type indexOptions struct {
	parser  *parser.Parser
	logger  *slog.Logger
	workers int
	mode    ReloadMode
}

// WithParser sets the parser, e.g. one with a fixed clock.
func WithParser(p *parser.Parser) Option {
	return func(o *indexOptions) { o.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *indexOptions) { o.logger = l }
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(o *indexOptions) { o.workers = n }
}

// WithReloadMode sets the reload mode (default ReloadWatch).
func WithReloadMode(m ReloadMode) Option {
	return func(o *indexOptions) { o.mode = m }
}

// NewIndex creates an Index over store. Nothing is read until the first
// Snapshot or Refresh call.
func NewIndex(store storage.Provider, opts ...Option) *Index {
	o := indexOptions{mode: ReloadWatch, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Index{
		builder: NewBuilder(store, o.parser, o.logger, o.workers),
		mode:    o.mode,
		logger:  o.logger,
	}
}

// Mode returns the reload mode.
func (i *Index) Mode() ReloadMode {
	return i.mode
}

// OnRefresh registers a hook run after each rebuild whose content differs from
// the previous one.
func (i *Index) OnRefresh(h RefreshHook) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.hooks = append(i.hooks, h)
}

// Refresh rebuilds the snapshot from disk and publishes it.
func (i *Index) Refresh(ctx context.Context) (*Snapshot, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	snap, err := i.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	prev := i.current.Swap(snap)

	if prev != nil && prev.Fingerprint() == snap.Fingerprint() {
		return snap, nil
	}
	i.logger.Info("posts: index refreshed",
		slog.Int("published", snap.Len()),
		slog.Int("failures", len(snap.failures)))
	for _, h := range i.hooks {
		h(ctx, snap)
	}
	return snap, nil
}

// Snapshot returns the current snapshot, building it first if there is none
// yet or the index runs in ReloadAlways mode.
func (i *Index) Snapshot(ctx context.Context) (*Snapshot, error) {
	if i.mode == ReloadAlways {
		return i.Refresh(ctx)
	}
	if snap := i.current.Load(); snap != nil {
		return snap, nil
	}
	snap, err := i.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("posts: initial build: %w", err)
	}
	return snap, nil
}
