// Package config loads cache construction options from defaults, an
// optional YAML file, and environment variables. Later sources override
// earlier ones.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	cache "github.com/krisalay/adaptive-cache"
	"github.com/krisalay/adaptive-cache/eviction"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// CACHE_MAX_ENTRIES=5000 overrides max_entries.
const EnvPrefix = "CACHE_"

// Config is the file- and env-loadable subset of cache.Options.
type Config struct {
	Name              string        `koanf:"name"`
	MaxEntries        int           `koanf:"max_entries"`
	MaxValueSizeMB    int           `koanf:"max_value_size_mb"`
	DefaultTTL        time.Duration `koanf:"default_ttl"`
	DefaultPriority   int           `koanf:"default_priority"`
	EvictionPolicy    string        `koanf:"eviction_policy"`
	CleanupInterval   time.Duration `koanf:"cleanup_interval"`
	BackgroundCleanup bool          `koanf:"background_cleanup"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Name:              "adaptive-cache",
		MaxEntries:        cache.DefaultMaxEntries,
		MaxValueSizeMB:    cache.DefaultMaxValueSizeMB,
		DefaultPriority:   50,
		EvictionPolicy:    string(eviction.Adaptive),
		CleanupInterval:   time.Minute,
		BackgroundCleanup: true,
	}
}

/*
Load builds the configuration in three layers:

 1. built-in defaults
 2. the YAML file at path, if path is non-empty and the file exists
 3. CACHE_* environment variables (CACHE_MAX_ENTRIES → max_entries)
*/
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: file %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the cache would silently "fix", so typos
// surface at startup instead of as surprising defaults.
func (c Config) Validate() error {
	if c.MaxEntries < 0 {
		return fmt.Errorf("config: max_entries must be >= 0, got %d", c.MaxEntries)
	}
	if c.MaxValueSizeMB < 0 {
		return fmt.Errorf("config: max_value_size_mb must be >= 0, got %d", c.MaxValueSizeMB)
	}
	switch eviction.PolicyType(strings.ToUpper(c.EvictionPolicy)) {
	case eviction.Adaptive, eviction.LRU, "":
	default:
		return fmt.Errorf("config: unknown eviction_policy %q", c.EvictionPolicy)
	}
	return nil
}

// Options converts the loaded configuration into cache construction
// options. Strategy objects (engine, logger) are wired by the caller.
func (c Config) Options() cache.Options {
	return cache.Options{
		Name:                     c.Name,
		MaxEntries:               c.MaxEntries,
		MaxValueSizeMB:           c.MaxValueSizeMB,
		DefaultTTL:               c.DefaultTTL,
		DefaultPriority:          c.DefaultPriority,
		EvictionPolicy:           eviction.PolicyType(strings.ToUpper(c.EvictionPolicy)),
		CleanupInterval:          c.CleanupInterval,
		DisableBackgroundCleanup: !c.BackgroundCleanup,
	}
}
