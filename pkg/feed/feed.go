// Package feed loads and parses feeds for the solver.
//
// A [Provider] maps an interface URI to a parsed [model.Feed]. Providers
// compose:
//
//   - [LocalProvider]: feeds on the local filesystem (absolute-path URIs)
//   - [HTTPProvider]: downloads feeds with retries, a byte cache and an
//     offline mode that serves stale cache entries
//   - [MemoryProvider]: fixed feeds for tests and embedding
//   - [Router]: dispatches local URIs and remote URIs to different providers
//   - [CachingProvider]: keeps parsed feeds and guarantees at most one
//     concurrent load per URI; safe for concurrent solves
//
// Feed documents use the 0install interface XML format; see [Parse].
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
)

// Provider returns the parsed feed for an interface URI.
type Provider interface {
	GetFeed(ctx context.Context, uri string) (*model.Feed, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, uri string) (*model.Feed, error)

// GetFeed implements Provider.
func (f ProviderFunc) GetFeed(ctx context.Context, uri string) (*model.Feed, error) {
	return f(ctx, uri)
}

// Sentinel errors. Provider errors wrap one of these and carry the matching
// error code (FEED_NOT_FOUND, INVALID_FEED, TRUST_ERROR).
var (
	ErrNotFound = errors.New("feed not found")
	ErrParse    = errors.New("feed parse error")
	ErrTrust    = errors.New("feed not trusted")
)

func notFound(uri string, cause error) error {
	return errs.Wrap(errs.ErrCodeFeedNotFound, joinCause(ErrNotFound, cause), "feed %s", uri)
}

func parseError(uri string, cause error) error {
	return errs.Wrap(errs.ErrCodeInvalidFeed, joinCause(ErrParse, cause), "feed %s", uri)
}

func joinCause(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// MemoryProvider serves fixed feeds keyed by URI.
type MemoryProvider struct {
	feeds map[string]*model.Feed
}

// NewMemoryProvider creates a provider serving feeds by their URI.
func NewMemoryProvider(feeds ...*model.Feed) *MemoryProvider {
	p := &MemoryProvider{feeds: make(map[string]*model.Feed)}
	for _, f := range feeds {
		p.Add(f)
	}
	return p
}

// Add registers f under f.URI, replacing any previous feed.
func (p *MemoryProvider) Add(f *model.Feed) { p.feeds[f.URI] = f }

// GetFeed implements Provider.
func (p *MemoryProvider) GetFeed(ctx context.Context, uri string) (*model.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, ok := p.feeds[uri]
	if !ok {
		return nil, notFound(uri, nil)
	}
	return f, nil
}

func discardLogger() *log.Logger { return log.New(io.Discard) }
