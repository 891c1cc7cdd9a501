package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/folio/internal/feed"
	"github.com/starford/folio/internal/postservice"
)

// FeedHandler serves the RSS feed and the sitemap.
type FeedHandler struct {
	svc  *postservice.Service
	site feed.Site
	now  func() time.Time
}

// NewFeedHandler creates a FeedHandler for site.
func NewFeedHandler(svc *postservice.Service, site feed.Site) *FeedHandler {
	return &FeedHandler{svc: svc, site: site, now: time.Now}
}

// RSS handles GET /rss.xml.
func (h *FeedHandler) RSS(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		fail(w, "rss", err)
		return
	}
	var buf bytes.Buffer
	if err := feed.WriteRSS(&buf, h.site, snap.All(), h.now()); err != nil {
		fail(w, "rss", err)
		return
	}
	writeXML(w, "application/rss+xml; charset=utf-8", buf.Bytes())
}

// Sitemap handles GET /sitemap.xml.
func (h *FeedHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context())
	if err != nil {
		fail(w, "sitemap", err)
		return
	}
	var buf bytes.Buffer
	if err := feed.WriteSitemap(&buf, h.site, snap.All(), snap.Tags()); err != nil {
		fail(w, "sitemap", err)
		return
	}
	writeXML(w, "application/xml; charset=utf-8", buf.Bytes())
}

func writeXML(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("xml write failed", slog.String("error", err.Error()))
	}
}
