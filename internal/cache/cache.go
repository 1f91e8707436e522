// Package cache implements the two-tier lookup store wrapped around
// idempotent backend calls: a process-local tier that is always populated
// and an optional shared tier consulted first when reachable.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/observability"
)

// SharedStore is the outbound contract of the optional shared tier. Absence
// or failure of the store degrades lookups to the local tier, never to an
// error.
type SharedStore interface {
	// Get retrieves a value, or domain.ErrCacheMiss when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// KeysMatching returns keys matching a glob pattern.
	KeysMatching(ctx context.Context, pattern string) ([]string, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Tiered composes the local tier with an optional shared tier. It implements
// domain.Cache.
type Tiered struct {
	local  *Memory
	shared SharedStore // nil when no shared tier is configured

	hits   atomic.Int64
	misses atomic.Int64
}

// NewTiered creates the two-tier cache. shared may be nil.
func NewTiered(local *Memory, shared SharedStore) (*Tiered, error) {
	if local == nil {
		return nil, errors.New("local cache tier cannot be nil")
	}
	return &Tiered{local: local, shared: shared}, nil
}

// Get looks the key up in the shared tier first when configured, then the
// local tier. Shared-tier failures fall through silently.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if t.shared != nil {
		value, err := t.shared.Get(ctx, key)
		if err == nil {
			t.hits.Add(1)
			return value, nil
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			observability.FromContext(ctx).Debug("shared cache get failed",
				observability.String("key", key),
				observability.Error(err),
			)
		}
	}

	if value, ok := t.local.Get(key); ok {
		t.hits.Add(1)
		return value, nil
	}

	t.misses.Add(1)
	return nil, domain.ErrCacheMiss
}

// Set always writes the local tier and best-effort mirrors to the shared
// tier.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	t.local.Set(key, value, ttl)

	if t.shared != nil {
		if err := t.shared.Set(ctx, key, value, ttl); err != nil {
			observability.FromContext(ctx).Warn("shared cache set failed",
				observability.String("key", key),
				observability.Error(err),
			)
		}
	}
	return nil
}

// Has reports whether a live value exists in either tier.
func (t *Tiered) Has(ctx context.Context, key string) bool {
	if t.local.Has(key) {
		return true
	}
	if t.shared != nil {
		if ok, err := t.shared.Exists(ctx, key); err == nil && ok {
			return true
		}
	}
	return false
}

// Delete removes the key from both tiers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	t.local.Delete(key)

	if t.shared != nil {
		if err := t.shared.Delete(ctx, key); err != nil {
			observability.FromContext(ctx).Warn("shared cache delete failed",
				observability.String("key", key),
				observability.Error(err),
			)
		}
	}
	return nil
}

// InvalidatePattern drops every key matching the glob pattern from both
// tiers and returns the local drop count.
func (t *Tiered) InvalidatePattern(ctx context.Context, pattern string) (int, error) {
	dropped := t.local.InvalidatePattern(pattern)

	if t.shared != nil {
		keys, err := t.shared.KeysMatching(ctx, pattern)
		if err != nil {
			observability.FromContext(ctx).Warn("shared cache scan failed",
				observability.String("pattern", pattern),
				observability.Error(err),
			)
			return dropped, nil
		}
		for _, key := range keys {
			if err := t.shared.Delete(ctx, key); err != nil {
				observability.FromContext(ctx).Warn("shared cache delete failed",
					observability.String("key", key),
					observability.Error(err),
				)
			}
		}
	}
	return dropped, nil
}

// GetOrSet returns the cached value for key, or runs factory and caches its
// result under ttl. The bool reports whether the value came from cache.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, factory func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	if value, err := t.Get(ctx, key); err == nil {
		return value, true, nil
	}

	value, err := factory(ctx)
	if err != nil {
		return nil, false, err
	}

	_ = t.Set(ctx, key, value, ttl)
	return value, false, nil
}

// Stats summarizes occupancy and shared-tier reachability.
func (t *Tiered) Stats(ctx context.Context) domain.CacheStats {
	sharedAvailable := false
	if t.shared != nil {
		sharedAvailable = t.shared.Ping(ctx) == nil
	}
	return domain.CacheStats{
		Entries:         t.local.Len(),
		Hits:            t.hits.Load(),
		Misses:          t.misses.Load(),
		SharedAvailable: sharedAvailable,
	}
}
