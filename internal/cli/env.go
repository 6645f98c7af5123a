package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/pkg/buildinfo"
	"github.com/matzehuels/feedsolve/pkg/cache"
	"github.com/matzehuels/feedsolve/pkg/config"
	"github.com/matzehuels/feedsolve/pkg/distro"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/httputil"
	"github.com/matzehuels/feedsolve/pkg/solver"
	"github.com/matzehuels/feedsolve/pkg/store"
)

// boundedBacktracks is the search limit of the first solver in the chain.
// A solve that needs more is retried without a limit.
const boundedBacktracks = 10000

// feedRequestsPerSecond throttles feed downloads per process.
const feedRequestsPerSecond = 10

// env bundles the collaborators a solving command needs.
type env struct {
	cfg    config.Config
	cache  cache.Cache
	feeds  feed.Provider
	store  store.Store
	distro distro.Manager
	logger *log.Logger
}

// loadConfig reads the --config file, or the default location.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	return config.LoadDefault()
}

// openCache opens the feed cache backend named by cfg.
func openCache(cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.Prefix)
	default:
		if cfg.Cache.Dir == "" {
			return cache.NewNullCache(), nil
		}
		// Feeds get their own subdirectory so clearing the cache never
		// touches the implementation store below the same root.
		return cache.NewFileCache(filepath.Join(cfg.Cache.Dir, "feeds"))
	}
}

// newEnv builds the feed, store and package-manager stack from cfg.
func (c *CLI) newEnv(ctx context.Context, cfg config.Config) (*env, error) {
	logger := loggerFromContext(ctx)

	fc, err := openCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	var keyer cache.Keyer
	if cfg.FeedMirror != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), "mirror:"+cache.Hash([]byte(cfg.FeedMirror))+":")
	}
	client := httputil.NewClient(
		httputil.WithHeader("User-Agent", buildinfo.UserAgent()),
		httputil.WithRateLimit(feedRequestsPerSecond, feedRequestsPerSecond),
	)
	remote := feed.NewHTTPProvider(feed.HTTPOptions{
		Client:     client,
		Cache:      fc,
		Keyer:      keyer,
		Freshness:  time.Duration(cfg.Freshness),
		NetworkUse: cfg.NetworkUse,
		Mirror:     cfg.FeedMirror,
		Logger:     logger,
	})

	e := &env{
		cfg:    cfg,
		cache:  fc,
		feeds:  feed.NewCachingProvider(feed.Router{Local: feed.NewLocalProvider(logger), Remote: remote}),
		distro: distro.Detect(),
		logger: logger,
	}
	if st, err := store.NewDirStore(cfg.StoreDirs...); err != nil {
		logger.Warn("implementation store unavailable", "err", err)
	} else {
		e.store = st
	}
	logger.Debug("environment ready", "network", cfg.NetworkUse, "cache", cfg.Cache.Backend, "distro", e.distro.Name())
	return e, nil
}

// Close releases the cache connection.
func (e *env) Close() error {
	return e.cache.Close()
}

func (e *env) solver(limit int) *solver.Solver {
	cfg := e.cfg
	return solver.New(e.feeds, solver.Options{
		Store:         e.store,
		Distro:        e.distro,
		Config:        &cfg,
		MaxBacktracks: limit,
		Logger:        e.logger,
	})
}

// engine returns the solver chain: a bounded search, an unbounded one,
// then the external command if one is given.
func (e *env) engine(external string) (solver.Engine, error) {
	engines := []solver.Engine{e.solver(boundedBacktracks), e.solver(0)}
	if external != "" {
		fields := strings.Fields(external)
		if len(fields) == 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "empty --external command")
		}
		engines = append(engines, &solver.ExternalSolver{Path: fields[0], Args: fields[1:]})
	}
	fb := solver.NewFallbackSolver(engines...)
	fb.Logger = e.logger
	return fb, nil
}
