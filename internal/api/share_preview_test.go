package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/share-preview/internal/config"
	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/storage/memory"
)

const (
	facebookUA = "facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)"
	browserUA  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	postID     = "8c6f2a1e-3b4d-4e5f-9a6b-7c8d9e0f1a2b"
)

// recordingStore counts lookups made against the wrapped store.
type recordingStore struct {
	next preview.PostStore
	err  error

	mu    sync.Mutex
	calls []string
}

func (s *recordingStore) PublishedPostByID(ctx context.Context, id string) (preview.Post, error) {
	s.record("id:" + id)
	if s.err != nil {
		return preview.Post{}, s.err
	}
	return s.next.PublishedPostByID(ctx, id)
}

func (s *recordingStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	s.record("slug:" + slug)
	if s.err != nil {
		return preview.Post{}, s.err
	}
	return s.next.PublishedPostBySlug(ctx, slug)
}

func (s *recordingStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *recordingStore) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 5},
		Site: config.SiteConfig{
			BaseURL:      "https://www.example.com",
			Name:         "Example Studio",
			Description:  "Strategy, design and technology.",
			DefaultImage: "/og-image.jpg",
		},
		Backend: config.BackendConfig{Provider: config.ProviderMemory},
	}
}

func seededStore() *recordingStore {
	return &recordingStore{next: memory.NewPostStore(
		preview.Post{
			ID:        postID,
			Slug:      "my-article",
			Title:     "My Article",
			Excerpt:   "What we learned shipping it.",
			Image:     "/uploads/cover.png",
			Category:  "Branding",
			Author:    "Ana",
			Tags:      []string{"design", "seo"},
			CreatedAt: "2024-03-01T10:00:00+00:00",
			UpdatedAt: "2024-03-02 08:30:00+00",
			PostType:  preview.PostTypeArticle,
			Published: true,
		},
		preview.Post{
			ID:        "f2d1c0b9-a8e7-4d6c-b5a4-938271605f4e",
			Slug:      "no-image",
			Title:     "No Image",
			PostType:  preview.PostTypeNews,
			Published: true,
		},
		preview.Post{
			ID:        "0b8e6c5d-4a3f-4e2d-9c1b-0a9f8e7d6c5b",
			Slug:      "draft",
			Title:     "Draft",
			Published: false,
		},
	)}
}

func newTestServer(store preview.PostStore) *Server {
	return NewServer(store, testConfig(), zap.NewNop())
}

func doPreview(t *testing.T, srv *Server, target, userAgent string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func parseHTML(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func ogProperty(doc *goquery.Document, property string) string {
	return doc.Find(`meta[property="` + property + `"]`).AttrOr("content", "")
}

func requireHTMLHeaders(t *testing.T, rec *httptest.ResponseRecorder, cacheControl string) {
	t.Helper()
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "noindex", rec.Header().Get("X-Robots-Tag"))
	require.Equal(t, cacheControl, rec.Header().Get("Cache-Control"))
}

func TestSharePreview_CrawlerGetsArticleDocument(t *testing.T) {
	t.Parallel()

	store := seededStore()
	rec := doPreview(t, newTestServer(store), "/api/share-preview?type=article&slug=my-article", facebookUA, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	requireHTMLHeaders(t, rec, "public, s-maxage=300, stale-while-revalidate=3600")
	body := rec.Body.String()
	require.Contains(t, body, `og:type" content="article"`)

	doc := parseHTML(t, body)
	require.Equal(t, "https://www.example.com/es/blog/my-article", ogProperty(doc, "og:url"))
	require.Equal(t, "My Article", ogProperty(doc, "og:title"))
	require.Equal(t, "https://www.example.com/uploads/cover.png", ogProperty(doc, "og:image"))
	require.Equal(t, "image/png", ogProperty(doc, "og:image:type"))
	require.Equal(t, "2024-03-01T10:00:00.000Z", ogProperty(doc, "article:published_time"))
	require.Equal(t, "2024-03-02T08:30:00.000Z", ogProperty(doc, "article:modified_time"))
	require.Equal(t, "Ana", ogProperty(doc, "article:author"))
	require.Equal(t, "Branding", ogProperty(doc, "article:section"))
	require.Equal(t, 2, doc.Find(`meta[property="article:tag"]`).Length())
	require.Equal(t, "summary_large_image", doc.Find(`meta[name="twitter:card"]`).AttrOr("content", ""))
	require.Equal(t, "My Article | Blog - Example Studio", doc.Find("title").Text())
	require.Equal(t, []string{"slug:my-article"}, store.recorded())
}

func TestSharePreview_LookupByIDBuildsSlugURL(t *testing.T) {
	t.Parallel()

	store := seededStore()
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug="+postID, "Twitterbot/1.0", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec.Body.String())
	require.Equal(t, "https://www.example.com/es/blog/my-article", ogProperty(doc, "og:url"))
	require.Equal(t, []string{"id:" + postID}, store.recorded())
}

func TestSharePreview_BrowserIsRedirected(t *testing.T) {
	t.Parallel()

	store := seededStore()
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug=my-article", browserUA,
		map[string]string{"X-Forwarded-Uri": "/es/blog/my-article"})

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/es/blog/my-article", rec.Header().Get("Location"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Empty(t, store.recorded())
}

func TestSharePreview_RedirectTargets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    string
	}{
		{
			name:   "request uri",
			target: "/api/share-preview?slug=x",
			want:   "/api/share-preview?slug=x",
		},
		{
			name:    "original url header",
			target:  "/api/share-preview?slug=x",
			headers: map[string]string{"X-Original-Url": "/en/news/x"},
			want:    "/en/news/x",
		},
		{
			name:    "absolute header ignored",
			target:  "/api/share-preview?slug=x",
			headers: map[string]string{"X-Forwarded-Uri": "https://evil.test/"},
			want:    "/api/share-preview?slug=x",
		},
		{
			name:    "protocol relative header ignored",
			target:  "/api/share-preview?slug=x",
			headers: map[string]string{"X-Forwarded-Uri": "//evil.test/"},
			want:    "/api/share-preview?slug=x",
		},
		{
			name:    "backslash header ignored",
			target:  "/api/share-preview?slug=x",
			headers: map[string]string{"X-Forwarded-Uri": `/\evil.test`},
			want:    "/api/share-preview?slug=x",
		},
		{
			name:    "forward slash then backslash ignored",
			target:  "/api/share-preview?slug=x",
			headers: map[string]string{"X-Original-Url": `\/evil.test`},
			want:    "/api/share-preview?slug=x",
		},
	}

	srv := newTestServer(seededStore())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doPreview(t, srv, tt.target, "", tt.headers)
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestSharePreview_MissingSlug(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"/api/share-preview",
		"/api/share-preview?type=news",
		"/api/share-preview?slug=",
		"/api/share-preview?slug=undefined",
	} {
		t.Run(target, func(t *testing.T) {
			t.Parallel()
			store := seededStore()
			rec := doPreview(t, newTestServer(store), target, facebookUA, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			requireHTMLHeaders(t, rec, "no-store")
			require.Contains(t, rec.Body.String(), "<title>Error")
			require.Equal(t, "Error", ogProperty(parseHTML(t, rec.Body.String()), "og:title"))
			require.Empty(t, store.recorded())
		})
	}
}

func TestSharePreview_NotFound(t *testing.T) {
	t.Parallel()

	rec := doPreview(t, newTestServer(seededStore()), "/api/share-preview?type=news&slug=does-not-exist", "LinkedInBot/1.0", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	requireHTMLHeaders(t, rec, "public, s-maxage=60")
	doc := parseHTML(t, rec.Body.String())
	require.Equal(t, "website", ogProperty(doc, "og:type"))
	require.Equal(t, "https://www.example.com/og-image.jpg", ogProperty(doc, "og:image"))
	require.Equal(t, "https://www.example.com/es/noticias/does-not-exist", ogProperty(doc, "og:url"))
}

func TestSharePreview_UnpublishedIsNotFound(t *testing.T) {
	t.Parallel()

	rec := doPreview(t, newTestServer(seededStore()), "/api/share-preview?slug=draft", facebookUA, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotContains(t, rec.Body.String(), "Draft")
}

func TestSharePreview_NullImageUsesDefault(t *testing.T) {
	t.Parallel()

	rec := doPreview(t, newTestServer(seededStore()), "/api/share-preview?slug=no-image", "Slackbot-LinkExpanding 1.0", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec.Body.String())
	require.Equal(t, "https://www.example.com/og-image.jpg", ogProperty(doc, "og:image"))
	require.Equal(t, "image/jpeg", ogProperty(doc, "og:image:type"))
	require.Equal(t, "https://www.example.com/es/noticias/no-image", ogProperty(doc, "og:url"))
	require.Zero(t, doc.Find("main img").Length())
}

func TestSharePreview_EnglishPath(t *testing.T) {
	t.Parallel()

	rec := doPreview(t, newTestServer(seededStore()), "/api/share-preview?slug=my-article", facebookUA,
		map[string]string{"X-Forwarded-Uri": "/en/blog/my-article"})

	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec.Body.String())
	require.Equal(t, "https://www.example.com/en/blog/my-article", ogProperty(doc, "og:url"))
	require.Equal(t, "en_US", ogProperty(doc, "og:locale"))
	require.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
}

func TestSharePreview_TrailingHyphenSlug(t *testing.T) {
	t.Parallel()

	store := seededStore()
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug=my-article--", facebookUA, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"slug:my-article"}, store.recorded())
}

func TestSharePreview_BackendErrorIsNotFound(t *testing.T) {
	t.Parallel()

	store := seededStore()
	store.err = errors.New("connection refused")
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug=my-article", facebookUA, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotContains(t, rec.Body.String(), "connection refused")
}

// slowStore blocks every lookup until the request context ends.
type slowStore struct{}

func (slowStore) PublishedPostByID(ctx context.Context, _ string) (preview.Post, error) {
	<-ctx.Done()
	return preview.Post{}, ctx.Err()
}

func (slowStore) PublishedPostBySlug(ctx context.Context, _ string) (preview.Post, error) {
	<-ctx.Done()
	return preview.Post{}, ctx.Err()
}

func TestSharePreview_SlowLookupTimesOutIntoHTML(t *testing.T) {
	t.Parallel()

	h := timeoutMiddleware(50 * time.Millisecond)(
		NewPreviewHandler(slowStore{}, SiteFromConfig(testConfig().Site), nil, zap.NewNop()),
	)
	req := httptest.NewRequest(http.MethodGet, "/api/share-preview?slug=my-article", nil)
	req.Header.Set("User-Agent", facebookUA)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	requireHTMLHeaders(t, rec, "public, s-maxage=60")
	require.Equal(t, "Example Studio", ogProperty(parseHTML(t, rec.Body.String()), "og:site_name"))
}

func TestSharePreview_MissingStoreIsServerError(t *testing.T) {
	t.Parallel()

	rec := doPreview(t, newTestServer(nil), "/api/share-preview?slug=my-article", facebookUA, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	requireHTMLHeaders(t, rec, "no-store")
	body := rec.Body.String()
	require.Contains(t, body, "<title>Error")
	require.NotContains(t, body, "not configured")
}

func TestSharePreview_EscapesStoredText(t *testing.T) {
	t.Parallel()

	hostile := `<script>alert("x")</script> & 'quoted'`
	store := memory.NewPostStore(preview.Post{
		ID:        postID,
		Slug:      "hostile",
		Title:     hostile,
		Excerpt:   hostile,
		Published: true,
	})
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug=hostile", facebookUA, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.NotContains(t, body, "<script>")
	require.Equal(t, hostile, ogProperty(parseHTML(t, body), "og:title"))
}

func TestSharePreview_Idempotent(t *testing.T) {
	t.Parallel()

	srv := newTestServer(seededStore())
	first := doPreview(t, srv, "/api/share-preview?slug=my-article", facebookUA, nil)
	second := doPreview(t, srv, "/api/share-preview?slug=my-article", facebookUA, nil)

	require.Equal(t, first.Code, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.NotEmpty(t, first.Header().Get("ETag"))
	require.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))
}

func TestSharePreview_ConditionalRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(seededStore())
	first := doPreview(t, srv, "/api/share-preview?slug=my-article", facebookUA, nil)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	tests := []struct {
		name        string
		ifNoneMatch string
		want        int
	}{
		{name: "matching tag", ifNoneMatch: etag, want: http.StatusNotModified},
		{name: "weak matching tag in list", ifNoneMatch: `"other", W/` + etag, want: http.StatusNotModified},
		{name: "wildcard", ifNoneMatch: "*", want: http.StatusNotModified},
		{name: "stale tag", ifNoneMatch: `"stale"`, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := doPreview(t, srv, "/api/share-preview?slug=my-article", facebookUA,
				map[string]string{"If-None-Match": tt.ifNoneMatch})
			require.Equal(t, tt.want, rec.Code)
			require.Equal(t, etag, rec.Header().Get("ETag"))
			if tt.want == http.StatusNotModified {
				require.Empty(t, rec.Body.String())
			}
		})
	}
}

func TestSharePreview_MultiValuedParams(t *testing.T) {
	t.Parallel()

	store := seededStore()
	rec := doPreview(t, newTestServer(store), "/api/share-preview?slug=&slug=my-article&type=&type=news", facebookUA, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"slug:my-article"}, store.recorded())
}
