// Package cache stores serialized stats payloads between requests.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found in cache")

// Cache is the small surface the stats service needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Noop is used when no Redis URL is configured; every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error)              { return nil, ErrNotFound }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                  { return nil }
func (Noop) Close() error                                             { return nil }
