// Package supabase reads published posts through the hosted backend's
// PostgREST interface.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/storage/record"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultTable   = "posts"
	defaultTimeout = 5 * time.Second
	maxErrorBody   = 512
)

// PostStoreConfig holds the hosted backend coordinates.
type PostStoreConfig struct {
	URL     string
	Key     string
	Table   string
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// PostStore implements preview.PostStore over PostgREST.
type PostStore struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewPostStore validates cfg and builds a PostStore.
func NewPostStore(cfg PostStoreConfig) (*PostStore, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be an absolute URL", cfg.URL)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("backend key is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PostStore{
		endpoint: base.String() + "/rest/v1/" + table,
		key:      cfg.Key,
		client:   client,
	}, nil
}

// PublishedPostByID returns the published post with the given id.
func (s *PostStore) PublishedPostByID(ctx context.Context, id string) (preview.Post, error) {
	return s.fetchOne(ctx, "id", id)
}

// PublishedPostBySlug returns the published post with the given slug.
func (s *PostStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	return s.fetchOne(ctx, "slug", slug)
}

func (s *PostStore) fetchOne(ctx context.Context, column, value string) (preview.Post, error) {
	if s == nil || s.client == nil {
		return preview.Post{}, fmt.Errorf("post store is not configured")
	}
	query := url.Values{}
	query.Set("select", record.Columns)
	query.Set(column, "eq."+value)
	query.Set("published", "eq.true")
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return preview.Post{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return preview.Post{}, fmt.Errorf("query posts by %s: %w", column, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return preview.Post{}, fmt.Errorf("query posts by %s: status %d: %s",
			column, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []record.Post
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return preview.Post{}, fmt.Errorf("decode posts: %w", err)
	}
	if len(rows) == 0 {
		return preview.Post{}, preview.ErrNotFound
	}
	return rows[0].Domain(), nil
}
