package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/starford/folio/internal/feed"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/storage"
)

// ErrCheckFailed is returned by Check when at least one content file was skipped.
var ErrCheckFailed = errors.New("content check failed")

// Export builds the index once and writes the static artifacts to outDir.
func Export(ctx context.Context, outDir string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := wire(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	snap, err := c.svc.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	out, err := storage.NewFS(outDir)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}
	if err := feed.Export(out, snap, app.config.Site.Feed(), time.Now()); err != nil {
		return err
	}

	logger.Info("Export complete",
		slog.String("out", out.Root()),
		slog.Int("posts", snap.Len()),
		slog.Int("failures", len(snap.Failures())))
	fmt.Fprintf(app.out, "exported %d posts to %s\n", snap.Len(), out.Root())
	return nil
}

// Check builds the index and prints every skipped file and duplicated slug.
// Duplicates are warnings; skipped files make it return ErrCheckFailed.
func Check(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := wire(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	snap, err := c.index.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	failures := snap.Failures()
	for _, f := range failures {
		fmt.Fprintf(app.out, "error: %s: %v\n", f.Path, f.Err)
	}

	dups := snap.DuplicateSlugs()
	slugs := make([]string, 0, len(dups))
	for slug := range dups {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(app.out, "warning: slug %q used by %v\n", slug, dups[slug])
	}

	fmt.Fprintf(app.out, "%d posts, %d failures, %d duplicate slugs\n", snap.Len(), len(failures), len(dups))
	if len(failures) > 0 {
		return fmt.Errorf("%w: %d file(s) skipped", ErrCheckFailed, len(failures))
	}
	return nil
}

// ServeMCP serves the read-only MCP tools over stdio. Logs go to stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	c, err := wire(app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.svc.Snapshot(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	logger.Info("MCP server starting", slog.String("content_path", app.config.Content.Path))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
