package cache

import (
	"context"
	"time"
)

// NullCache never stores anything.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (c *NullCache) Get(context.Context, string) (Entry, bool, error)          { return Entry{}, false, nil }
func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (c *NullCache) Delete(context.Context, string) error                     { return nil }
func (c *NullCache) Clear(context.Context) error                              { return nil }
func (c *NullCache) Close() error                                             { return nil }

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
