// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/posts"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/storage"
)

// components is the wired read path shared by every command.
type components struct {
	store  *storage.FS
	index  *posts.Index
	engine search.Engine
	svc    *postservice.Service
}

func (c *components) Close() error {
	return c.engine.Close()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the JSON logger and installs it as the default.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func wire(cfg *Config, logger *slog.Logger) (*components, error) {
	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	engine, err := search.New(cfg.Search.Engine, cfg.Search.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("init search: %w", err)
	}

	idx := posts.NewIndex(store,
		posts.WithLogger(logger),
		posts.WithWorkers(cfg.Content.ParseWorkers),
		posts.WithReloadMode(cfg.Content.ReloadMode()),
	)
	svc := postservice.NewService(idx, engine, cfg.Site.PostsPerPage, logger)

	return &components{store: store, index: idx, engine: engine, svc: svc}, nil
}

// Run starts the HTTP server and, in watch mode, the content watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("reload", cfg.Content.Reload),
		slog.String("search_engine", cfg.Search.Engine),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := wire(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// Initial build; per-file failures are logged by the builder.
	snap, err := c.svc.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	if n := len(snap.Failures()); n > 0 {
		logger.Warn("some content files were skipped", slog.Int("failures", n))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           api.NewRootRouter(c.svc, cfg.Site.Feed()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gCtx := errgroup.WithContext(runCtx)

	// Follow content changes.
	if c.index.Mode() == posts.ReloadWatch {
		g.Go(func() error {
			return posts.Watch(gCtx, c.index, c.store.Root(), cfg.Content.Debounce, logger)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		// Stops the watcher.
		cancelRun()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
