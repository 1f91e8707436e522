package domain

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by cache lookups when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the two-tier lookup store wrapped around idempotent backend
// calls. Implementations must be safe for concurrent use; last write wins on
// key collisions.
type Cache interface {
	// Get retrieves a value, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL in the local tier and best-effort
	// mirrors it to the shared tier.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Has reports whether a live value exists for the key.
	Has(ctx context.Context, key string) bool

	// Delete removes a key from every tier.
	Delete(ctx context.Context, key string) error

	// InvalidatePattern removes every key matching a glob pattern and
	// returns how many local entries were dropped.
	InvalidatePattern(ctx context.Context, pattern string) (int, error)

	// GetOrSet returns the cached value for key, or runs factory and caches
	// its result. The bool reports whether the value came from cache.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, bool, error)

	// Stats summarizes cache occupancy and shared-tier reachability.
	Stats(ctx context.Context) CacheStats
}

// CacheStats is the occupancy summary reported by Stats.
type CacheStats struct {
	Entries         int   `json:"entries"`
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
	SharedAvailable bool  `json:"shared_available"`
}
