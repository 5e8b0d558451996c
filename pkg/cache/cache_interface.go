package cache

import (
	"context"
	"time"
)

// Cache is the read-through layer in front of the repositories.
// Implementations: infrastructure/cache.RedisCache, cache.Noop.
type Cache interface {
	// Get decodes the entry into dest.
	// Returns found=false on a miss; dest is left untouched then.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set encodes value and stores it with ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern, e.g. "books:list:*".
	DeletePattern(ctx context.Context, pattern string) error

	Ping(ctx context.Context) error
}
