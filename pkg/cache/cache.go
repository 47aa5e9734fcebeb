// Package cache implements the time-boxed read-through policy every fetch
// goes through: a cached dataset is served as long as it is younger than the
// TTL, otherwise it is refetched and replaced wholesale. There is no partial
// update and no locking; concurrent refreshes of the same key are idempotent
// re-fetches of the same upstream truth, so last write wins is acceptable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/store"
)

// DefaultTTL is how long a cached dataset stays usable without a refetch.
const DefaultTTL = 2 * time.Minute

// Entry is what gets persisted per key: the raw dataset plus its fetch time.
type Entry struct {
	Data      []json.RawMessage `json:"data"`
	FetchedAt int64             `json:"fetchedAtMillis"`
}

// Valid reports whether the entry is younger than ttl at time now.
func (e Entry) Valid(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-e.FetchedAt < ttl.Milliseconds()
}

// FetchFunc produces a fresh dataset on cache miss.
type FetchFunc func(ctx context.Context) ([]json.RawMessage, error)

// Cache wraps a Store with the TTL policy.
type Cache struct {
	// Now may be overridden in tests.
	Now func() time.Time

	store  store.Store
	ttl    time.Duration
	logger *log.Logger
}

// New builds a cache over st. A non-positive ttl falls back to DefaultTTL.
func New(st store.Store, ttl time.Duration, logger *log.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{Now: time.Now, store: st, ttl: ttl, logger: logger}
}

// GetOrFetch returns the cached dataset for key when still valid, otherwise
// calls fetch and replaces the entry. A failure to persist the fresh entry
// is logged but does not fail the call; the data is already in hand.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) ([]json.RawMessage, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, falling through to fetch", "key", key, "error", err)
	} else if ok {
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			c.logger.Warn("discarding unreadable cache entry", "key", key, "error", err)
		} else if entry.Valid(c.Now(), c.ttl) {
			c.logger.Debug("cache hit", "key", key, "items", len(entry.Data))
			return entry.Data, nil
		}
	}

	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	entry := Entry{Data: data, FetchedAt: c.Now().UnixMilli()}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	if err := c.store.Set(ctx, key, encoded); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	c.logger.Debug("cache refreshed", "key", key, "items", len(data))
	return data, nil
}

// Invalidate drops the given keys so the next read refetches.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("invalidate %q: %w", key, err)
		}
	}
	return nil
}
