// Package cache provides a read-through TTL cache over the transaction
// store. The spreadsheet API enforces a request quota (~100 requests per
// 100 seconds), so every read path in the service goes through here.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hanifmaulana/kasbot/internal/model"
)

// Loader fetches the value for a key from the backing store.
type Loader func(ctx context.Context) ([]model.Transaction, error)

// MissError is returned when the loader fails and no previously cached value
// exists for the key. It wraps the loader's error.
type MissError struct {
	Key string
	Err error
}

func (e *MissError) Error() string {
	return fmt.Sprintf("cache: no value for key %q: %v", e.Key, e.Err)
}

func (e *MissError) Unwrap() error { return e.Err }

type entry struct {
	value     []model.Transaction
	fetchedAt time.Time
}

// Cache is a read-through cache keyed by logical query signature
// ("all", "period:2025-03", ...). Entries older than the TTL are reloaded
// synchronously on the next Get; concurrent Gets for the same key share a
// single in-flight load. Construct one Cache per process and share it.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry
	gen     uint64
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Get returns the cached value for key, loading it through load when the
// entry is missing or stale. When the loader fails and a previous value
// exists, that value is returned (and the failure logged): availability is
// preferred over freshness on this bounded-staleness read path. When no
// previous value exists the failure surfaces as a *MissError.
//
// Callers must not mutate the returned slice. A caller whose ctx expires
// stops waiting, but a shared in-flight load keeps running for the other
// waiters.
func (c *Cache) Get(ctx context.Context, key string, load Loader) ([]model.Transaction, error) {
	if value, ok := c.lookup(key, true); ok {
		return value, nil
	}

	// The load runs detached from this caller's ctx so that one impatient
	// caller cannot kill a load other waiters are attached to.
	loadCtx := context.WithoutCancel(ctx)
	c.mu.RLock()
	startGen := c.gen
	c.mu.RUnlock()
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another waiter may have refreshed the entry while this call was
		// queued behind a settling flight.
		if value, ok := c.lookup(key, true); ok {
			return value, nil
		}

		value, err := load(loadCtx)
		if err != nil {
			if previous, ok := c.lookup(key, false); ok {
				c.log.Warn().Err(err).Str("key", key).
					Msg("loader failed, serving stale cache entry")
				return previous, nil
			}
			return nil, err
		}

		c.mu.Lock()
		// A write may have invalidated the cache while this load was in
		// flight; its result could predate that write's commit, so it is
		// returned to the waiters but not stored.
		if c.gen == startGen {
			c.entries[key] = &entry{value: value, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return value, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, &MissError{Key: key, Err: res.Err}
		}
		return res.Val.([]model.Transaction), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate discards the entry for key. Any component that writes through
// the external store must call this so reads never observe data older than
// the writer's own commit.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateAll discards every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.gen++
	c.mu.Unlock()
}

// lookup returns the entry for key. With freshOnly set, entries older than
// the TTL are treated as absent.
func (c *Cache) lookup(key string, freshOnly bool) ([]model.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if freshOnly && c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return e.value, true
}
