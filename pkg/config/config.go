// Package config loads feedsolve settings and per-interface preferences.
//
// Settings live in a TOML file, by default
// $XDG_CONFIG_HOME/feedsolve/config.toml:
//
//	network_use = "minimal"
//	help_with_testing = false
//	freshness = "720h"
//	languages = ["en_GB", "de"]
//	store_dirs = ["/var/cache/0install.net/implementations"]
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[interface."http://example.com/app.xml"]
//	stability_policy = "stable"
//	extra_feeds = ["/home/me/app-dev.xml"]
//
//	[implementation."sha1new=abc"]
//	user_stability = "preferred"
//
// A missing file yields the defaults. FEEDSOLVE_NETWORK_USE and
// FEEDSOLVE_CACHE_DIR override the file.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
)

const appName = "feedsolve"

// Environment variables overriding the file.
const (
	EnvNetworkUse = "FEEDSOLVE_NETWORK_USE"
	EnvCacheDir   = "FEEDSOLVE_CACHE_DIR"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultFreshness is how long a downloaded feed is used without checking
// for updates.
const DefaultFreshness = 30 * 24 * time.Hour

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// CacheConfig selects the feed cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// InterfacePreferences are user settings for one interface.
type InterfacePreferences struct {
	// StabilityPolicy is the minimum stability preferred for this interface.
	// Unset falls back to the global help_with_testing policy.
	StabilityPolicy model.Stability `toml:"stability_policy"`
	ExtraFeeds      []string        `toml:"extra_feeds"`
}

// ImplementationPreferences are user settings for one implementation.
type ImplementationPreferences struct {
	UserStability model.Stability `toml:"user_stability"`
}

// Preferences holds per-interface and per-implementation overrides.
type Preferences struct {
	Interfaces      map[string]InterfacePreferences      `toml:"interface"`
	Implementations map[string]ImplementationPreferences `toml:"implementation"`
}

// StabilityPolicy returns the stability policy for uri, or StabilityUnset.
func (p Preferences) StabilityPolicy(uri string) model.Stability {
	return p.Interfaces[uri].StabilityPolicy
}

// ExtraFeeds returns the user-registered feeds for uri.
func (p Preferences) ExtraFeeds(uri string) []string {
	return p.Interfaces[uri].ExtraFeeds
}

// UserStability returns the user's rating of an implementation, or
// StabilityUnset.
func (p Preferences) UserStability(id string) model.Stability {
	return p.Implementations[id].UserStability
}

// Config is the complete configuration.
type Config struct {
	NetworkUse      feed.NetworkUse `toml:"network_use"`
	HelpWithTesting bool            `toml:"help_with_testing"`
	Freshness       Duration        `toml:"freshness"`
	FeedMirror      string          `toml:"feed_mirror"`
	StoreDirs       []string        `toml:"store_dirs"`
	Languages       []string        `toml:"languages"`
	Cache           CacheConfig     `toml:"cache"`

	Preferences
}

// Default returns the default configuration.
func Default() Config {
	var c Config
	return c.WithDefaults()
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.NetworkUse == "" {
		c.NetworkUse = feed.NetworkFull
	}
	if c.Freshness <= 0 {
		c.Freshness = Duration(DefaultFreshness)
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = appName + ":"
	}
	if c.Cache.Dir == "" {
		if dir, err := CacheDir(); err == nil {
			c.Cache.Dir = dir
		}
	}
	if len(c.StoreDirs) == 0 {
		if dir, err := CacheDir(); err == nil {
			c.StoreDirs = []string{filepath.Join(dir, "implementations")}
		}
	}
	return c
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if _, err := feed.ParseNetworkUse(string(c.NetworkUse)); err != nil {
		return err
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone, ""}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeInvalidInput, "cache backend redis needs redis_url")
	}
	return nil
}

// Load reads the configuration at path, applies environment overrides and
// defaults, and validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil && !os.IsNotExist(err) {
		return Config{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "read config %s", path)
	}
	c = c.applyEnv(os.Getenv).WithDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.NetworkUse, _ = feed.ParseNetworkUse(string(c.NetworkUse))
	return c, nil
}

// LoadDefault loads the configuration from DefaultPath.
func LoadDefault() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

func (c Config) applyEnv(getenv func(string) string) Config {
	if v := getenv(EnvNetworkUse); v != "" {
		c.NetworkUse = feed.NetworkUse(v)
	}
	if v := getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	return c
}

// Save writes c to path as TOML, creating parent directories.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DefaultPath returns $XDG_CONFIG_HOME/feedsolve/config.toml.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/feedsolve or ~/.config/feedsolve.
func ConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns $XDG_CACHE_HOME/feedsolve or ~/.cache/feedsolve.
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
