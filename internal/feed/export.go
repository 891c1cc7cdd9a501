package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/folio/internal/posts"
	"github.com/starford/folio/internal/storage"
)

// Export file names.
const (
	PostsFile   = "posts.json"
	TagsFile    = "tags.json"
	RSSFile     = "rss.xml"
	SitemapFile = "sitemap.xml"
)

// Export writes the metadata projection, the tag index, the RSS feed and the
// sitemap of snap to out. Each file is replaced atomically.
func Export(out storage.Writer, snap *posts.Snapshot, site Site, now time.Time) error {
	all := snap.All()
	tags := snap.Tags()

	files := []struct {
		name   string
		render func(*bytes.Buffer) error
	}{
		{PostsFile, func(b *bytes.Buffer) error { return encodeJSON(b, snap.Meta()) }},
		{TagsFile, func(b *bytes.Buffer) error { return encodeJSON(b, tags) }},
		{RSSFile, func(b *bytes.Buffer) error { return WriteRSS(b, site, all, now) }},
		{SitemapFile, func(b *bytes.Buffer) error { return WriteSitemap(b, site, all, tags) }},
	}

	for _, f := range files {
		var buf bytes.Buffer
		if err := f.render(&buf); err != nil {
			return fmt.Errorf("feed: render %s: %w", f.name, err)
		}
		if err := out.Write(f.name, buf.Bytes()); err != nil {
			return fmt.Errorf("feed: write %s: %w", f.name, err)
		}
	}
	return nil
}

func encodeJSON(b *bytes.Buffer, v any) error {
	enc := json.NewEncoder(b)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
