package api

import (
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/search"
)

// PostListResponse is one page of a post listing (aliased from the domain layer).
type PostListResponse = postservice.Page

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// StatusResponse describes the current index snapshot (aliased from the domain layer).
type StatusResponse = postservice.Status

// RefreshResponse summarises a rebuild (aliased from the domain layer).
type RefreshResponse = postservice.RefreshResult

// TagsResponse wraps the tag index.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// TagPostsResponse wraps the posts carrying one tag.
type TagPostsResponse struct {
	Tag   string            `json:"tag" example:"go" validate:"required"`
	Posts []models.PostMeta `json:"posts" validate:"required"`
}

// ArchiveResponse wraps the posts grouped by year.
type ArchiveResponse struct {
	Years []postservice.YearArchive `json:"years" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}
