package feed

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/feedsolve/pkg/model"
)

// CachingProvider memoizes parsed feeds from an inner provider. Concurrent
// requests for the same URI share one load. Failed loads are not cached.
type CachingProvider struct {
	inner Provider
	group singleflight.Group

	mu    sync.RWMutex
	feeds map[string]*model.Feed
}

// NewCachingProvider wraps inner.
func NewCachingProvider(inner Provider) *CachingProvider {
	return &CachingProvider{inner: inner, feeds: make(map[string]*model.Feed)}
}

// GetFeed implements Provider. Callers must treat the returned feed as
// read-only; it is shared between solves.
func (p *CachingProvider) GetFeed(ctx context.Context, uri string) (*model.Feed, error) {
	p.mu.RLock()
	f, ok := p.feeds[uri]
	p.mu.RUnlock()
	if ok {
		return f, nil
	}

	ch := p.group.DoChan(uri, func() (any, error) {
		f, err := p.inner.GetFeed(context.WithoutCancel(ctx), uri)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.feeds[uri] = f
		p.mu.Unlock()
		return f, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Feed), nil
	}
}
