// Package feed renders the published posts as RSS, a sitemap and JSON.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/starford/folio/internal/models"
)

// Site describes the blog the feeds are generated for.
type Site struct {
	Title       string
	Description string
	Author      string
	URL         string
}

// BuildURL joins path segments onto base. Each segment is escaped on its own,
// so a "/" inside a segment does not add a path level.
func BuildURL(base string, segments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	plain := path.Join(append([]string{"/", u.Path}, segments...)...)
	raw := path.Join(append([]string{"/", u.EscapedPath()}, escaped...)...)
	if plain == "/" {
		plain, raw = "", ""
	}
	u.Path, u.RawPath = plain, raw
	return u.String()
}

// PostURL returns the public URL of a post.
func PostURL(base, slug string) string {
	return BuildURL(base, "blog", slug)
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	Copyright     string    `xml:"copyright"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Generator     string    `xml:"generator"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// WriteRSS writes an RSS 2.0 feed of posts, in the order given. now stamps the
// copyright year.
func WriteRSS(w io.Writer, site Site, posts []models.Post, now time.Time) error {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		link := PostURL(site.URL, p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: p.Description,
			PubDate:     p.Date.Format(time.RFC1123Z),
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			Categories:  p.Tags,
		})
	}

	var lastBuild string
	if latest := latestModified(posts); !latest.IsZero() {
		lastBuild = latest.Format(time.RFC1123Z)
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:         site.Title,
			Link:          BuildURL(site.URL),
			Description:   site.Description,
			Language:      "en",
			Copyright:     fmt.Sprintf("All rights reserved %d, %s", now.Year(), site.Author),
			LastBuildDate: lastBuild,
			Generator:     "folio",
			Items:         items,
		},
	}
	return encodeXML(w, feed)
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// StaticPages are the fixed site pages listed first in the sitemap.
var StaticPages = []string{"", "blog", "tags", "about", "search"}

// WriteSitemap writes a sitemap with the static pages, every post and every tag.
func WriteSitemap(w io.Writer, site Site, posts []models.Post, tags []models.TagCount) error {
	urls := make([]sitemapURL, 0, len(StaticPages)+len(posts)+len(tags))
	for _, page := range StaticPages {
		priority := "0.8"
		if page == "" {
			priority = "1.0"
		}
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(site.URL, page),
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:        PostURL(site.URL, p.Slug),
			LastMod:    p.LastModified().Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(site.URL, "tags", t.Name),
			ChangeFreq: "weekly",
			Priority:   "0.5",
		})
	}

	return encodeXML(w, sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

func encodeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("feed: encode: %w", err)
	}
	return nil
}

// latestModified returns the newest last-modified time across posts, which
// need not belong to the newest post.
func latestModified(posts []models.Post) time.Time {
	var latest time.Time
	for _, p := range posts {
		if m := p.LastModified(); m.After(latest) {
			latest = m
		}
	}
	return latest
}
