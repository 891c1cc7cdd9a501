package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"

	"github.com/starford/folio/internal/feed"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/posts"
	"github.com/starford/folio/internal/postservice"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/testutil"
)

var testSite = feed.Site{
	Title:       "Folio",
	Description: "Test blog",
	Author:      "Tester",
	URL:         "https://blog.example.com",
}

// testEnv sets up a temp content dir, index, service, and root router.
func testEnv(t *testing.T, files map[string]string) (string, http.Handler) {
	t.Helper()
	dir, store := testutil.ContentDir(t)
	testutil.WriteFixture(t, dir, files)

	engine, err := search.New(search.EngineBleve, "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { engine.Close() })

	idx := posts.NewIndex(store, posts.WithLogger(testutil.Logger()))
	svc := postservice.NewService(idx, engine, 10, testutil.Logger())
	return dir, NewRootRouter(svc, testSite)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestListPosts(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)

	w := get(t, router, "/api/posts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	page := decode[PostListResponse](t, w)
	if page.Total != 2 || page.Page != 1 || page.Pages != 1 {
		t.Errorf("page = %+v", page)
	}
	if len(page.Posts) != 2 || page.Posts[0].Title != "B" || page.Posts[1].Title != "A" {
		t.Errorf("posts = %+v", page.Posts)
	}
	if strings.Contains(w.Body.String(), `"content"`) {
		t.Error("listing should not include bodies")
	}

	w = get(t, router, "/api/posts?featured=true")
	if page := decode[PostListResponse](t, w); page.Total != 1 || page.Posts[0].Title != "B" {
		t.Errorf("featured = %+v", page)
	}

	w = get(t, router, "/api/posts?tag=Y")
	if page := decode[PostListResponse](t, w); page.Total != 1 || page.Posts[0].Title != "B" {
		t.Errorf("tag=Y = %+v", page)
	}

	w = get(t, router, "/api/posts?limit=1&page=2")
	if page := decode[PostListResponse](t, w); page.Pages != 2 || len(page.Posts) != 1 || page.Posts[0].Title != "A" {
		t.Errorf("page 2 = %+v", page)
	}
}

func TestListPosts_BadParams(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)
	for _, target := range []string{"/api/posts?page=x", "/api/posts?limit=-1", "/api/posts?featured=maybe"} {
		if w := get(t, router, target); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", target, w.Code)
		}
	}
}

func TestListPosts_EmptyIsArray(t *testing.T) {
	_, router := testEnv(t, nil)
	w := get(t, router, "/api/posts")
	if !strings.Contains(w.Body.String(), `"posts":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
	w = get(t, router, "/api/posts/meta")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("meta body = %s", w.Body.String())
	}
	w = get(t, router, "/api/tags")
	if !strings.Contains(w.Body.String(), `"tags":[]`) {
		t.Errorf("tags body = %s", w.Body.String())
	}
}

func TestPostsMeta(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)
	w := get(t, router, "/api/posts/meta")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var raw []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if len(raw) != 2 {
		t.Fatalf("len = %d", len(raw))
	}
	for _, key := range []string{"slug", "title", "description", "date", "tags", "featured", "draft", "readingTime"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("meta missing %q: %v", key, raw[0])
		}
	}
	if _, ok := raw[0]["content"]; ok {
		t.Error("meta should not include content")
	}
}

func TestGetPost(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)

	w := get(t, router, "/api/posts/a")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	detail := decode[PostDetail](t, w)
	if detail.Post.Title != "A" || !strings.Contains(detail.Post.Content, "Alpha body") {
		t.Errorf("post = %+v", detail.Post)
	}
	if !strings.Contains(detail.HTML, "<p>Alpha body about gophers.</p>") {
		t.Errorf("html = %q", detail.HTML)
	}
	if len(detail.Related) != 1 || detail.Related[0].Slug != "b" {
		t.Errorf("related = %+v", detail.Related)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)
	w := get(t, router, "/api/posts/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != `{"error":"not found"}` {
		t.Errorf("body = %s", body)
	}
}

func TestGetPost_DraftHidden(t *testing.T) {
	files := map[string]string{"secret.md": "---\ntitle: S\ndraft: true\n---\n"}
	_, router := testEnv(t, files)
	if w := get(t, router, "/api/posts/secret"); w.Code != http.StatusNotFound {
		t.Errorf("draft = %d, want 404", w.Code)
	}
}

func TestTagsAndArchive(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)

	tags := decode[TagsResponse](t, get(t, router, "/api/tags"))
	want := []models.TagCount{{Name: "x", Count: 2}, {Name: "y", Count: 1}}
	if len(tags.Tags) != 2 || tags.Tags[0] != want[0] || tags.Tags[1] != want[1] {
		t.Errorf("tags = %+v", tags.Tags)
	}

	byTag := decode[TagPostsResponse](t, get(t, router, "/api/tags/X"))
	if byTag.Tag != "X" || len(byTag.Posts) != 2 {
		t.Errorf("byTag = %+v", byTag)
	}

	unknown := get(t, router, "/api/tags/none")
	if unknown.Code != http.StatusOK || !strings.Contains(unknown.Body.String(), `"posts":[]`) {
		t.Errorf("unknown tag = %d %s", unknown.Code, unknown.Body.String())
	}

	archive := decode[ArchiveResponse](t, get(t, router, "/api/archive"))
	if len(archive.Years) != 1 || archive.Years[0].Year != 2024 || len(archive.Years[0].Posts) != 2 {
		t.Errorf("archive = %+v", archive)
	}
}

func TestSearch(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)

	w := get(t, router, "/api/search?q=gophers")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[SearchResponse](t, w)
	if len(res.Results) != 1 || res.Results[0].Slug != "a" {
		t.Errorf("results = %+v", res.Results)
	}

	w = get(t, router, "/api/search?q=zebra")
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("no hits body = %s", w.Body.String())
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, nil)
	if w := get(t, router, "/api/search"); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
	if w := get(t, router, "/api/search?q=%20%20"); w.Code != http.StatusBadRequest {
		t.Errorf("search blank query = %d, want 400", w.Code)
	}
}

func TestRefreshAndStatus(t *testing.T) {
	dir, router := testEnv(t, testutil.Fixture)

	st := decode[StatusResponse](t, get(t, router, "/api/status"))
	if st.Posts != 2 || len(st.Failures) != 0 {
		t.Errorf("status = %+v", st)
	}

	testutil.WriteFile(t, dir, "c.md", "---\ntitle: C\ndate: 2024-05-01\n---\n")
	testutil.WriteFile(t, dir, "broken.md", "---\ndate: soon\n---\n")

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh = %d", w.Code)
	}
	if r := decode[RefreshResponse](t, w); r.Posts != 3 || r.Failures != 1 {
		t.Errorf("refresh = %+v", r)
	}

	st = decode[StatusResponse](t, get(t, router, "/api/status"))
	if st.Posts != 3 || len(st.Failures) != 1 || st.Failures[0].Path != "broken.md" {
		t.Errorf("status after refresh = %+v", st)
	}

	if w := get(t, router, "/api/refresh"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh = %d, want 405", w.Code)
	}
}

func TestRSS(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)
	w := get(t, router, "/rss.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("content type = %q", ct)
	}
	f, err := gofeed.NewParser().ParseString(w.Body.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Items) != 2 || f.Items[0].Link != "https://blog.example.com/blog/b" {
		t.Errorf("items = %+v", f.Items)
	}
}

func TestSitemap(t *testing.T) {
	_, router := testEnv(t, testutil.Fixture)
	w := get(t, router, "/sitemap.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, loc := range []string{
		"<loc>https://blog.example.com</loc>",
		"<loc>https://blog.example.com/blog/a</loc>",
		"<loc>https://blog.example.com/tags/x</loc>",
	} {
		if !strings.Contains(body, loc) {
			t.Errorf("sitemap missing %s", loc)
		}
	}
}

func TestHealth(t *testing.T) {
	_, router := testEnv(t, nil)
	for _, target := range []string{"/health/live", "/health/ready"} {
		w := get(t, router, target)
		if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"status":"ok"}` {
			t.Errorf("%s = %d %s", target, w.Code, w.Body.String())
		}
	}
}
