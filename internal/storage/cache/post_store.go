// Package cache fronts a preview.PostStore with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/telemetry"
)

const (
	defaultPrefix = "sharepreview:post:"
	defaultTTL    = 5 * time.Minute
)

// Config tunes cache keys and expiry.
type Config struct {
	Prefix string
	TTL    time.Duration
}

// NewClient opens a Redis client for addr.
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

// PostStore caches found posts. Misses and backend errors are never cached,
// and a failing Redis degrades to direct backend reads.
type PostStore struct {
	next   preview.PostStore
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewPostStore wraps next with a cache backed by client.
func NewPostStore(next preview.PostStore, client redis.UniversalClient, cfg Config, logger *zap.Logger) (*PostStore, error) {
	if next == nil {
		return nil, fmt.Errorf("backing post store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PostStore{next: next, client: client, prefix: prefix, ttl: ttl, logger: logger}, nil
}

// PublishedPostByID implements preview.PostStore.
func (s *PostStore) PublishedPostByID(ctx context.Context, id string) (preview.Post, error) {
	return s.readThrough(ctx, "id:"+id, func(ctx context.Context) (preview.Post, error) {
		return s.next.PublishedPostByID(ctx, id)
	})
}

// PublishedPostBySlug implements preview.PostStore.
func (s *PostStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	return s.readThrough(ctx, "slug:"+slug, func(ctx context.Context) (preview.Post, error) {
		return s.next.PublishedPostBySlug(ctx, slug)
	})
}

// Ping checks Redis and, when supported, the backing store.
func (s *PostStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *PostStore) readThrough(
	ctx context.Context,
	suffix string,
	load func(context.Context) (preview.Post, error),
) (preview.Post, error) {
	key := s.prefix + suffix
	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var post preview.Post
		jsonErr := json.Unmarshal(raw, &post)
		switch {
		case jsonErr != nil:
			telemetry.ObserveCache(telemetry.CacheError)
			s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
		case !post.Published:
			telemetry.ObserveCache(telemetry.CacheMiss)
			s.logger.Warn("discarding unpublished cache entry", zap.String("key", key))
		default:
			telemetry.ObserveCache(telemetry.CacheHit)
			return post, nil
		}
	case errors.Is(err, redis.Nil):
		telemetry.ObserveCache(telemetry.CacheMiss)
	default:
		telemetry.ObserveCache(telemetry.CacheError)
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	post, err := load(ctx)
	if err != nil {
		return preview.Post{}, err
	}
	payload, err := json.Marshal(post)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return post, nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return post, nil
}
