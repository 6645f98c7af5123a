package feed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/pkg/cache"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/httputil"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/observability"
)

// NetworkUse controls how the HTTP provider uses the network.
type NetworkUse string

const (
	NetworkFull    NetworkUse = "full"
	NetworkMinimal NetworkUse = "minimal"
	NetworkOffline NetworkUse = "offline"
)

// ParseNetworkUse parses a network use policy name.
func ParseNetworkUse(s string) (NetworkUse, error) {
	switch n := NetworkUse(strings.ToLower(strings.TrimSpace(s))); n {
	case NetworkFull, NetworkMinimal, NetworkOffline:
		return n, nil
	case "":
		return NetworkFull, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "unknown network use %q (want full, minimal or offline)", s)
}

const (
	defaultFreshness = 30 * 24 * time.Hour
	defaultAttempts  = 3
	defaultDelay     = time.Second
)

// HTTPOptions configures an HTTPProvider.
type HTTPOptions struct {
	Client     *httputil.Client
	Cache      cache.Cache
	Keyer      cache.Keyer
	Freshness  time.Duration
	NetworkUse NetworkUse
	// Mirror, when set, is tried after the origin fails; the feed URI is
	// appended escaped, e.g. "https://mirror.example/feeds/".
	Mirror string
	// Attempts and RetryDelay control download retries (default 3 and 1s).
	Attempts   int
	RetryDelay time.Duration
	Logger     *log.Logger
}

// HTTPProvider downloads remote feeds. Raw feed bytes are cached; a fresh
// cache entry is served without a request, and stale entries are served
// when offline or when the network fails.
type HTTPProvider struct {
	client    *httputil.Client
	cache     cache.Cache
	keyer     cache.Keyer
	freshness time.Duration
	network   NetworkUse
	mirror    string
	logger    *log.Logger
	attempts  int
	delay     time.Duration
}

// NewHTTPProvider creates an HTTP provider with defaults for unset options.
func NewHTTPProvider(opts HTTPOptions) *HTTPProvider {
	p := &HTTPProvider{
		client:    opts.Client,
		cache:     opts.Cache,
		keyer:     opts.Keyer,
		freshness: opts.Freshness,
		network:   opts.NetworkUse,
		mirror:    opts.Mirror,
		logger:    opts.Logger,
		attempts:  defaultAttempts,
		delay:     defaultDelay,
	}
	if p.client == nil {
		p.client = httputil.NewClient()
	}
	if p.cache == nil {
		p.cache = cache.NewNullCache()
	}
	if p.keyer == nil {
		p.keyer = cache.NewDefaultKeyer()
	}
	if p.freshness <= 0 {
		p.freshness = defaultFreshness
	}
	if p.network == "" {
		p.network = NetworkFull
	}
	if p.logger == nil {
		p.logger = discardLogger()
	}
	if opts.Attempts > 0 {
		p.attempts = opts.Attempts
	}
	if opts.RetryDelay > 0 {
		p.delay = opts.RetryDelay
	}
	return p
}

// GetFeed implements Provider.
func (p *HTTPProvider) GetFeed(ctx context.Context, uri string) (*model.Feed, error) {
	start := time.Now()
	data, source, err := p.fetch(ctx, uri)
	observability.Feed().OnFeedLoad(ctx, uri, source, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return Parse(data, uri, ParseOptions{Logger: p.logger})
}

func (p *HTTPProvider) fetch(ctx context.Context, uri string) ([]byte, string, error) {
	key := p.keyer.FeedKey(uri)
	entry, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("feed cache read failed", "uri", uri, "err", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, "feed")
	} else {
		observability.Cache().OnCacheMiss(ctx, "feed")
	}

	if hit && !entry.Expired(time.Now()) {
		return entry.Data, "cache", nil
	}
	if p.network == NetworkOffline {
		if hit {
			p.logger.Debug("serving stale feed (offline)", "uri", uri)
			return entry.Data, "stale", nil
		}
		return nil, "network", errs.Wrap(errs.ErrCodeFeedNotFound, ErrNotFound,
			"feed %s is not cached and network use is offline", uri)
	}

	data, err := p.download(ctx, uri)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "network", ctx.Err()
		}
		if hit && !errors.Is(err, httputil.ErrNotFound) {
			p.logger.Warn("download failed, serving stale feed", "uri", uri, "err", err)
			return entry.Data, "stale", nil
		}
		return nil, "network", p.classify(uri, err)
	}

	if err := p.cache.Set(ctx, key, data, p.freshness); err != nil {
		p.logger.Warn("feed cache write failed", "uri", uri, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "feed", len(data))
	}
	return data, "network", nil
}

func (p *HTTPProvider) download(ctx context.Context, uri string) ([]byte, error) {
	var data []byte
	get := func(url string) error {
		return httputil.Retry(ctx, p.attempts, p.delay, func() error {
			var err error
			data, err = p.client.Get(ctx, url)
			return err
		})
	}
	err := get(uri)
	if err != nil && p.mirror != "" && ctx.Err() == nil {
		p.logger.Debug("trying feed mirror", "uri", uri, "mirror", p.mirror)
		if mirrorErr := get(mirrorURL(p.mirror, uri)); mirrorErr == nil {
			return data, nil
		}
	}
	return data, err
}

func mirrorURL(mirror, uri string) string {
	escaped := strings.NewReplacer("/", "%23", ":", "%3A").Replace(uri)
	return strings.TrimSuffix(mirror, "/") + "/" + escaped + "/latest.xml"
}

func (p *HTTPProvider) classify(uri string, err error) error {
	if errors.Is(err, httputil.ErrNotFound) {
		return notFound(uri, err)
	}
	return errs.Wrap(errs.ErrCodeNetwork, err, "download feed %s", uri)
}
