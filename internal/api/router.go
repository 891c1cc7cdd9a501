// Package api implements the Folio read API using chi.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/folio/internal/feed"
	"github.com/starford/folio/internal/postservice"
)

// NewRouter creates a chi router with all API routes, to be mounted at /api.
func NewRouter(svc *postservice.Service) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Posts. The static meta route wins over the slug pattern.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/meta", h.PostsMeta)
	r.Get("/posts/{slug}", h.GetPost)

	// Tags and archive.
	r.Get("/tags", h.Tags)
	r.Get("/tags/{tag}", h.PostsByTag)
	r.Get("/archive", h.Archive)

	// Search.
	r.Get("/search", h.Search)

	// Index administration.
	r.Post("/refresh", h.Refresh)
	r.Get("/status", h.Status)

	return r
}

// NewRootRouter wires the full HTTP surface: request middleware,
// health checks, feeds and the API under /api.
func NewRootRouter(svc *postservice.Service, site feed.Site) chi.Router {
	h := NewHandler(svc)
	fh := NewFeedHandler(svc, site)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", Live)
	r.Get("/health/ready", h.Ready)

	// Feeds.
	r.Get("/rss.xml", fh.RSS)
	r.Get("/sitemap.xml", fh.Sitemap)

	// Mount API routes under /api.
	r.Mount("/api", NewRouter(svc))

	return r
}
