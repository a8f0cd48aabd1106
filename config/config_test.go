package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/adaptive-cache/eviction"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "adaptive-cache", cfg.Name)
	assert.True(t, cfg.BackgroundCleanup)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: sessions
max_entries: 5000
default_ttl: 30s
eviction_policy: LRU
background_cleanup: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sessions", cfg.Name)
	assert.Equal(t, 5000, cfg.MaxEntries)
	assert.Equal(t, 30*time.Second, cfg.DefaultTTL)
	assert.Equal(t, "LRU", cfg.EvictionPolicy)
	assert.False(t, cfg.BackgroundCleanup)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().MaxValueSizeMB, cfg.MaxValueSizeMB)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_entries: 5000\n"), 0o644))

	t.Setenv("CACHE_MAX_ENTRIES", "250")
	t.Setenv("CACHE_NAME", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.MaxEntries)
	assert.Equal(t, "from-env", cfg.Name)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_entries: [oops\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxEntries = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxValueSizeMB = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.EvictionPolicy = "RANDOM"
	assert.Error(t, bad.Validate())

	// Policy names are case-insensitive.
	ok := cfg
	ok.EvictionPolicy = "lru"
	assert.NoError(t, ok.Validate())
}

func TestLoadRejectsInvalidPolicyFromEnv(t *testing.T) {
	t.Setenv("CACHE_EVICTION_POLICY", "RANDOM")
	_, err := Load("")
	assert.Error(t, err)
}

func TestOptionsConversion(t *testing.T) {
	cfg := Config{
		Name:              "sessions",
		MaxEntries:        10,
		MaxValueSizeMB:    2,
		DefaultTTL:        time.Minute,
		DefaultPriority:   70,
		EvictionPolicy:    "lru",
		CleanupInterval:   5 * time.Second,
		BackgroundCleanup: false,
	}

	opts := cfg.Options()
	assert.Equal(t, "sessions", opts.Name)
	assert.Equal(t, 10, opts.MaxEntries)
	assert.Equal(t, 2, opts.MaxValueSizeMB)
	assert.Equal(t, time.Minute, opts.DefaultTTL)
	assert.Equal(t, 70, opts.DefaultPriority)
	assert.Equal(t, eviction.LRU, opts.EvictionPolicy)
	assert.Equal(t, 5*time.Second, opts.CleanupInterval)
	assert.True(t, opts.DisableBackgroundCleanup)
}
