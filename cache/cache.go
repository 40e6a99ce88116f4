package cache

import (
	"context"
	"errors"
)

// Cache stores JSON-encodable report results under string keys.
type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no redis address is configured; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string, any) error    { return ErrCacheMiss }
func (Noop) Set(context.Context, string, any) error    { return nil }
func (Noop) DeletePrefix(context.Context, string) error { return nil }
