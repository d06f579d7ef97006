// Package postgres provides a pgx-backed PostStore.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/share-preview/internal/preview"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "posts"

// PostStoreConfig controls the Postgres connection pool used for post lookups.
type PostStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryRower interface {
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// PostStore reads published posts from Postgres.
type PostStore struct {
	pool   queryRower
	table  string
	byID   string
	bySlug string
}

// NewPostStore creates a Postgres-backed PostStore using the provided config.
func NewPostStore(ctx context.Context, cfg PostStoreConfig) (*PostStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewPostStoreWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewPostStoreWithPool(pool queryRower, table string) (*PostStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostStore{
		pool:   pool,
		table:  table,
		byID:   selectPublished(table, "id::text"),
		bySlug: selectPublished(table, "slug"),
	}, nil
}

// Every column is read as text so nullable and enum/array/jsonb columns scan
// into plain strings.
func selectPublished(table, column string) string {
	return fmt.Sprintf(`
SELECT
	id::text,
	COALESCE(slug, ''),
	COALESCE(title, ''),
	COALESCE(excerpt, ''),
	COALESCE(image, ''),
	COALESCE(category, ''),
	COALESCE(author, ''),
	COALESCE(tags::text, ''),
	COALESCE(created_at::text, ''),
	COALESCE(updated_at::text, ''),
	COALESCE(post_type::text, ''),
	published
FROM %s
WHERE %s = $1 AND published = true
LIMIT 1`, table, column)
}

// Close releases the underlying pool resources.
func (s *PostStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *PostStore) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("post store is not configured")
	}
	return s.pool.Ping(ctx)
}

// PublishedPostByID returns the published post with the given id.
func (s *PostStore) PublishedPostByID(ctx context.Context, id string) (preview.Post, error) {
	if s == nil || s.pool == nil {
		return preview.Post{}, fmt.Errorf("post store is not configured")
	}
	return s.queryOne(ctx, s.byID, id)
}

// PublishedPostBySlug returns the published post with the given slug.
func (s *PostStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	if s == nil || s.pool == nil {
		return preview.Post{}, fmt.Errorf("post store is not configured")
	}
	return s.queryOne(ctx, s.bySlug, slug)
}

func (s *PostStore) queryOne(ctx context.Context, query, arg string) (preview.Post, error) {
	var (
		post     preview.Post
		tags     string
		postType string
	)
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&post.ID,
		&post.Slug,
		&post.Title,
		&post.Excerpt,
		&post.Image,
		&post.Category,
		&post.Author,
		&tags,
		&post.CreatedAt,
		&post.UpdatedAt,
		&postType,
		&post.Published,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return preview.Post{}, preview.ErrNotFound
		}
		return preview.Post{}, fmt.Errorf("select post from %s: %w", s.table, err)
	}
	post.Tags = preview.NormalizeTags(tags)
	post.PostType = preview.ParsePostType(postType)
	return post, nil
}
