package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// GetJSON decodes the cached JSON value at key into T.
func GetJSON[T any](ctx context.Context, c domain.Cache, key string) (*T, error) {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode cached value for %s: %w", key, err)
	}
	return &out, nil
}

// SetJSON stores value as JSON under key.
func SetJSON[T any](ctx context.Context, c domain.Cache, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %s: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}

// GetOrSetJSON returns the cached T for key, or runs factory and caches its
// JSON encoding. The bool reports whether the value came from cache.
func GetOrSetJSON[T any](ctx context.Context, c domain.Cache, key string, ttl time.Duration, factory func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, hit, err := c.GetOrSet(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, false, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, fmt.Errorf("decode cached value for %s: %w", key, err)
	}
	return out, hit, nil
}
