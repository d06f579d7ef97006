package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/share-preview/internal/config"
	"github.com/JakeFAU/share-preview/internal/preview"
	"github.com/JakeFAU/share-preview/internal/storage/cache"
	"github.com/JakeFAU/share-preview/internal/storage/memory"
	"github.com/JakeFAU/share-preview/internal/storage/postgres"
	"github.com/JakeFAU/share-preview/internal/storage/ratelimit"
	"github.com/JakeFAU/share-preview/internal/storage/supabase"
)

// newPostStore builds the configured backend, optionally behind the rate
// limiter and the Redis cache. The returned func releases pools and clients.
func newPostStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (preview.PostStore, func(), error) {
	if err := cfg.Backend.Validate(cfg.DB); err != nil {
		return nil, nil, err
	}

	var (
		store   preview.PostStore
		closers []func()
	)
	switch cfg.Backend.Provider {
	case config.ProviderSupabase:
		s, err := supabase.NewPostStore(supabase.PostStoreConfig{
			URL:     cfg.Backend.URL,
			Key:     cfg.Backend.Key,
			Table:   cfg.Backend.Table,
			Timeout: cfg.Backend.Timeout(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("supabase post store: %w", err)
		}
		store = s
	case config.ProviderPostgres:
		lifetime, err := cfg.DB.ConnLifetime()
		if err != nil {
			return nil, nil, err
		}
		s, err := postgres.NewPostStore(ctx, postgres.PostStoreConfig{
			DSN:             cfg.DB.DSN,
			Table:           cfg.Backend.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: lifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres post store: %w", err)
		}
		store = s
		closers = append(closers, s.Close)
	case config.ProviderMemory:
		if cfg.Backend.SeedFile == "" {
			logger.Warn("memory backend has no seed file; every lookup will miss")
			store = memory.NewPostStore()
			break
		}
		s, err := memory.LoadFile(cfg.Backend.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("memory post store: %w", err)
		}
		logger.Info("loaded seed posts", zap.String("file", cfg.Backend.SeedFile), zap.Int("count", s.Len()))
		store = s
	}

	if cfg.Backend.MaxRPS > 0 {
		limited, err := ratelimit.NewPostStore(store, ratelimit.Config{
			RPS:   cfg.Backend.MaxRPS,
			Burst: cfg.Backend.Burst,
		})
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("post rate limit: %w", err)
		}
		store = limited
	}

	// The cache sits outside the limiter so hits never wait for a token.
	if cfg.Cache.Enabled() {
		client := cache.NewClient(cfg.Cache.RedisAddr)
		cached, err := cache.NewPostStore(store, client, cache.Config{
			Prefix: cfg.Cache.Prefix,
			TTL:    cfg.Cache.TTL(),
		}, logger.Named("cache"))
		if err != nil {
			_ = client.Close()
			closeAll(closers)
			return nil, nil, fmt.Errorf("post cache: %w", err)
		}
		store = cached
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close failed", zap.Error(err))
			}
		})
	}

	return store, func() { closeAll(closers) }, nil
}

func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}
