// Package cache provides byte caches for downloaded feeds.
//
// Entries remember when they expire but backends keep them past expiry, so
// an offline solve can still use a stale feed. Callers decide what to do
// with an expired [Entry].
//
// Backends:
//
//   - [FileCache]: one JSON file per key under a directory (CLI default)
//   - [RedisCache]: shared cache for several machines
//   - [NullCache]: never stores anything
package cache

import (
	"context"
	"time"
)

// Entry is a cached value with its freshness metadata.
type Entry struct {
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Cache stores opaque byte values.
type Cache interface {
	// Get returns the entry for key. Expired entries are returned with
	// hit=true; a missing entry is (Entry{}, false, nil).
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	Close() error
}

func newEntry(data []byte, ttl time.Duration) Entry {
	now := time.Now()
	e := Entry{Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

// Keyer builds cache keys.
type Keyer interface {
	// FeedKey returns the key for the raw bytes of the feed at uri.
	FeedKey(uri string) string
}

// DefaultKeyer hashes feed URIs under the "feed:" namespace.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// FeedKey implements Keyer.
func (DefaultKeyer) FeedKey(uri string) string { return hashKey("feed", uri) }

// ScopedKeyer prefixes the keys of another Keyer, e.g. to keep feeds
// fetched through different mirrors apart in a shared cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer if nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// FeedKey implements Keyer.
func (k *ScopedKeyer) FeedKey(uri string) string { return k.prefix + k.inner.FeedKey(uri) }
