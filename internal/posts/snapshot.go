// Package posts is the content index: it turns the content tree into an
// immutable snapshot of published posts and answers queries against it.
package posts

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/folio/internal/models"
)

// FileError records a content file that could not be read or parsed.
// Err already names the file.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Snapshot is one build of the index. It is never mutated after construction
// and every query returns freshly allocated slices.
type Snapshot struct {
	posts       []models.Post // published, date-descending
	failures    []FileError
	fingerprint string
	builtAt     time.Time
}

// NewSnapshot builds a snapshot from parsed posts in discovery order. Drafts are
// dropped and the rest sorted by date, newest first, keeping discovery order
// for equal dates.
func NewSnapshot(parsed []models.Post, failures []FileError) *Snapshot {
	published := make([]models.Post, 0, len(parsed))
	for _, p := range parsed {
		if p.Draft {
			continue
		}
		published = append(published, p)
	}
	slices.SortStableFunc(published, func(a, b models.Post) int {
		return b.Date.Compare(a.Date)
	})
	return &Snapshot{
		posts:    published,
		failures: slices.Clone(failures),
		builtAt:  time.Now(),
	}
}

// Len returns the number of published posts.
func (s *Snapshot) Len() int {
	return len(s.posts)
}

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Fingerprint identifies the content the snapshot was built from.
func (s *Snapshot) Fingerprint() string {
	return s.fingerprint
}

// Failures returns the files skipped during the build.
func (s *Snapshot) Failures() []FileError {
	return slices.Clone(s.failures)
}

// All returns every published post, newest first.
func (s *Snapshot) All() []models.Post {
	return slices.Clone(s.posts)
}

// Meta returns the metadata-only projection of All.
func (s *Snapshot) Meta() []models.PostMeta {
	return MetaOf(s.posts)
}

// BySlug returns the first published post with the given slug.
func (s *Snapshot) BySlug(slug string) (models.Post, bool) {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return models.Post{}, false
}

// Featured returns the featured posts, newest first.
func (s *Snapshot) Featured() []models.Post {
	out := []models.Post{}
	for _, p := range s.posts {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// ByTag returns the posts carrying tag, compared case-insensitively.
func (s *Snapshot) ByTag(tag string) []models.Post {
	want := NormalizeTag(tag)
	out := []models.Post{}
	if want == "" {
		return out
	}
	for _, p := range s.posts {
		if hasTag(p, want) {
			out = append(out, p)
		}
	}
	return out
}

// Tags returns every tag in lowercase with the number of posts using it, most
// used first. Equal counts keep the order in which the tags were first seen.
func (s *Snapshot) Tags() []models.TagCount {
	counts := []models.TagCount{}
	pos := make(map[string]int)
	for _, p := range s.posts {
		for _, t := range p.Tags {
			name := NormalizeTag(t)
			if name == "" {
				continue
			}
			if i, ok := pos[name]; ok {
				counts[i].Count++
				continue
			}
			pos[name] = len(counts)
			counts = append(counts, models.TagCount{Name: name, Count: 1})
		}
	}
	slices.SortStableFunc(counts, func(a, b models.TagCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return counts
}

// ByYear groups the posts by the UTC calendar year of their date, newest year first.
func (s *Snapshot) ByYear() []models.YearGroup {
	groups := []models.YearGroup{}
	pos := make(map[int]int)
	for _, p := range s.posts {
		year := p.Date.UTC().Year()
		i, ok := pos[year]
		if !ok {
			i = len(groups)
			pos[year] = i
			groups = append(groups, models.YearGroup{Year: year})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	slices.SortStableFunc(groups, func(a, b models.YearGroup) int {
		return cmp.Compare(b.Year, a.Year)
	})
	return groups
}

// Related returns up to limit other posts sharing at least one tag with post.
// A limit <= 0 means no limit.
func (s *Snapshot) Related(post models.Post, limit int) []models.Post {
	tagSet := make(map[string]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		if tag := NormalizeTag(t); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	out := []models.Post{}
	if len(tagSet) == 0 {
		return out
	}
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[NormalizeTag(t)]; ok {
				out = append(out, p)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// DuplicateSlugs returns the slugs shared by more than one published post,
// each mapped to the source paths in listing order.
func (s *Snapshot) DuplicateSlugs() map[string][]string {
	paths := make(map[string][]string)
	for _, p := range s.posts {
		paths[p.Slug] = append(paths[p.Slug], p.Path)
	}
	for slug, ps := range paths {
		if len(ps) < 2 {
			delete(paths, slug)
		}
	}
	return paths
}

// MetaOf projects posts to their metadata.
func MetaOf(posts []models.Post) []models.PostMeta {
	out := make([]models.PostMeta, len(posts))
	for i, p := range posts {
		out[i] = p.Meta()
	}
	return out
}

// NormalizeTag folds a tag for comparison. Lowercasing is Unicode-aware, so
// "ΟΔΟΣ" and "οδος" are the same tag.
func NormalizeTag(t string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(t))
}

func hasTag(p models.Post, normalized string) bool {
	for _, t := range p.Tags {
		if NormalizeTag(t) == normalized {
			return true
		}
	}
	return false
}
