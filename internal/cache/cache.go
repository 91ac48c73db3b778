// Package cache implements the TTL-keyed key/value cache from spec §4.7.
// Storage is pluggable behind the Store interface: MemoryStore for a
// single-instance deployment, SQLiteStore for a shared backing store across
// horizontally-scaled instances — mirroring the "shared kv store" option
// the spec calls out.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"mediasearch/internal/core"
)

// Store is the raw byte-oriented backing contract: get(bytes -> bytes),
// set(bytes, bytes, ttlMillis) (spec §6 "Outbound" cache contract).
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is the typed TTL cache built on top of a Store. Entries are
// immutable after insertion — a refresh is always an overwrite via Set,
// never an in-place mutation.
type Cache struct {
	store  Store
	logger *core.Logger
}

// New builds a Cache backed by store.
func New(store Store, logger *core.Logger) *Cache {
	return &Cache{store: store, logger: logger.ForFeature("cache")}
}

// Get looks up key and decodes it into a value of type T. A store error is
// logged and reported as a miss, per the error-handling design
// (CacheError is always swallowed on read).
func Get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("cache entry unmarshal failed, treating as miss", "key", key, "error", err)
		return zero, false
	}
	return value, true
}

// Set encodes value and stores it under key with the given TTL. A store
// error is logged and dropped — writes never fail the caller's request.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache entry marshal failed, skipping write", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("cache set failed, skipping write", "key", key, "error", err)
	}
}
