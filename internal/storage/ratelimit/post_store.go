// Package ratelimit throttles lookups against a preview.PostStore with a token
// bucket so crawler bursts cannot overrun the content backend.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/telemetry"
)

// Config holds rate limiter configuration. A non-positive RPS disables limiting.
type Config struct {
	RPS   float64
	Burst int
}

// PostStore waits for a token before every backend lookup.
type PostStore struct {
	next    preview.PostStore
	limiter *rate.Limiter
}

// NewPostStore wraps next with a limiter built from cfg.
func NewPostStore(next preview.PostStore, cfg Config) (*PostStore, error) {
	if next == nil {
		return nil, fmt.Errorf("backing post store is required")
	}
	r := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &PostStore{next: next, limiter: rate.NewLimiter(r, burst)}, nil
}

// PublishedPostByID implements preview.PostStore.
func (s *PostStore) PublishedPostByID(ctx context.Context, id string) (preview.Post, error) {
	if err := s.wait(ctx); err != nil {
		return preview.Post{}, err
	}
	return s.next.PublishedPostByID(ctx, id)
}

// PublishedPostBySlug implements preview.PostStore.
func (s *PostStore) PublishedPostBySlug(ctx context.Context, slug string) (preview.Post, error) {
	if err := s.wait(ctx); err != nil {
		return preview.Post{}, err
	}
	return s.next.PublishedPostBySlug(ctx, slug)
}

// Ping forwards to the backing store when it supports readiness checks.
func (s *PostStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *PostStore) wait(ctx context.Context) error {
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	// Immediate tokens are not worth a histogram sample.
	if d := time.Since(start); d > time.Millisecond {
		telemetry.ObserveThrottle(d)
	}
	return nil
}
