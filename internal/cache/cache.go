// Package cache provides the short-lived read-through cache used for
// identity lookups and compliance overviews. Entries are an optimisation
// only: stale reads are acceptable and heal when the TTL expires.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"alcyxob/coach-tracker/internal/metrics"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is used when a caller passes a non-positive TTL.
const DefaultTTL = 30 * time.Second

// Cache stores JSON-encoded values under string keys.
type Cache interface {
	// Get decodes the value for key into dest. found is false on a miss.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ReadThrough wraps a Cache with best-effort semantics: backend errors are
// logged and behave like misses so the caller always falls back to the loader.
type ReadThrough struct {
	cache Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewReadThrough(c Cache, ttl time.Duration, log logrus.FieldLogger) *ReadThrough {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReadThrough{cache: c, ttl: ttl, log: log}
}

// Invalidate drops keys, logging failures.
func (rt *ReadThrough) Invalidate(ctx context.Context, keys ...string) {
	if rt == nil || rt.cache == nil || len(keys) == 0 {
		return
	}
	if err := rt.cache.Delete(ctx, keys...); err != nil {
		rt.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

// Fetch returns the cached value for key or calls load and stores its result.
// Loader errors are returned and never cached.
func Fetch[T any](ctx context.Context, rt *ReadThrough, key string, load func(context.Context) (T, error)) (T, error) {
	if rt == nil || rt.cache == nil {
		return load(ctx)
	}

	var cached T
	found, err := rt.cache.Get(ctx, key, &cached)
	if err != nil {
		rt.log.WithError(err).WithField("key", key).Warn("cache read failed, loading from source")
	}
	metrics.RecordCacheLookup(found && err == nil)
	if found && err == nil {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := rt.cache.Set(ctx, key, v, rt.ttl); err != nil {
		rt.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return v, nil
}

func encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func decode(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
