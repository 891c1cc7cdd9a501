package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// fail writes the response for a service error: 404 for missing posts, 400 for
// invalid input and a logged 500 otherwise.
func fail(w http.ResponseWriter, op string, err error, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List published posts, newest first
//	@Tags			posts
//	@Produce		json
//	@Param			tag			query		string	false	"Filter by tag (case-insensitive)"
//	@Param			featured	query		bool	false	"Only featured posts"
//	@Param			page		query		int		false	"1-based page number"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	PostListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, okPage := intParam(r, "page")
	limit, okLimit := intParam(r, "limit")
	if !okPage || !okLimit {
		writeJSON(w, http.StatusBadRequest, errorBody("page and limit must be non-negative integers"))
		return
	}
	var featured bool
	if raw := q.Get("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("featured must be a boolean"))
			return
		}
		featured = v
	}

	res, err := h.svc.List(r.Context(), postservice.ListQuery{
		Tag:      q.Get("tag"),
		Featured: featured,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		fail(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PostsMeta handles GET /api/posts/meta.
//
//	@Summary		Metadata of every published post, without bodies
//	@Tags			posts
//	@Produce		json
//	@Success		200	{array}	models.PostMeta
//	@Router			/posts/meta [get]
func (h *Handler) PostsMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Meta(r.Context())
	if err != nil {
		fail(w, "posts meta", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// GetPost handles GET /api/posts/{slug}.
//
//	@Summary		Get a published post by slug
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	PostDetail
//	@Failure		404		{object}	errResponse
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.svc.Get(r.Context(), slug)
	if err != nil {
		fail(w, "get post", err, slog.String("slug", slug))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Tags handles GET /api/tags.
//
//	@Summary		Every tag with its post count, most used first
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		fail(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// PostsByTag handles GET /api/tags/{tag}.
//
//	@Summary		Posts carrying a tag
//	@Tags			tags
//	@Produce		json
//	@Param			tag	path		string	true	"Tag (case-insensitive)"
//	@Success		200	{object}	TagPostsResponse
//	@Router			/tags/{tag} [get]
func (h *Handler) PostsByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	list, err := h.svc.ByTag(r.Context(), tag)
	if err != nil {
		fail(w, "posts by tag", err, slog.String("tag", tag))
		return
	}
	writeJSON(w, http.StatusOK, TagPostsResponse{Tag: tag, Posts: list})
}

// Archive handles GET /api/archive.
//
//	@Summary		Posts grouped by year, newest year first
//	@Tags			posts
//	@Produce		json
//	@Success		200	{object}	ArchiveResponse
//	@Router			/archive [get]
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	years, err := h.svc.Archive(r.Context())
	if err != nil {
		fail(w, "archive", err)
		return
	}
	writeJSON(w, http.StatusOK, ArchiveResponse{Years: years})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across published posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, ok := intParam(r, "limit")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		fail(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Refresh handles POST /api/refresh.
//
//	@Summary		Rebuild the index from the content directory
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	RefreshResponse
//	@Router			/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Refresh(r.Context())
	if err != nil {
		fail(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/status.
//
//	@Summary		Current snapshot size and build failures
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context())
	if err != nil {
		fail(w, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Ready handles GET /health/ready. It succeeds once a snapshot can be served.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Snapshot(r.Context()); err != nil {
		slog.Warn("readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
