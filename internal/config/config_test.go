package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-holder-cache/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holder_cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
upstream:
  holder_index_url: "http://holders.internal:8000"
  profile_store_url: "http://profiles.internal:8000"
  price_url: "http://price.internal:8000"
`

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadConfig(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	assert.Equal(t, "lru", cfg.L1.Engine)
	assert.Equal(t, 10000, cfg.L1.MaxEntries)
	assert.False(t, cfg.Redis.Enabled)

	// The hot leaderboard namespace: short lifetime, immediately stale.
	assert.Equal(t, 30*time.Second, cfg.Namespaces.Holders.TTL.Std())
	assert.Equal(t, time.Duration(0), cfg.Namespaces.Holders.Stale())
	assert.Equal(t, time.Hour, cfg.Namespaces.Profile.TTL.Std())
	assert.Equal(t, 5*time.Minute, cfg.Namespaces.Profile.Stale())
	assert.Equal(t, time.Minute, cfg.Namespaces.NegativeTTL.Std())

	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 5, cfg.RateLimit.TokensPerInterval)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Interval.Std())

	assert.Equal(t, 100, cfg.Leaderboard.ListLimit)
	assert.Equal(t, 3, cfg.Upstream.RetryMax)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":3000"
l1:
  engine: "bigcache"
  size_mb: 128
  life_window: "15m"
redis:
  enabled: true
  url: "redis://cache.internal:6379"
namespaces:
  profile:
    ttl: "2h"
    stale_threshold: "10m"
    refresh_timeout: "5s"
rate_limit:
  enabled: true
  burst: 20
upstream:
  holder_index_url: "http://holders.internal:8000"
  profile_store_url: "http://profiles.internal:8000"
  price_url: "http://price.internal:8000"
  api_key: "secret"
`)

	cfg, err := LoadConfig(path, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.ListenAddr)
	assert.Equal(t, "bigcache", cfg.L1.Engine)
	assert.Equal(t, 128, cfg.L1.SizeMB)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.Namespaces.Profile.TTL.Std())
	assert.Equal(t, 10*time.Minute, cfg.Namespaces.Profile.Stale())
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
}

func TestLoadConfig_StaleThresholdExceedsTTL(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
namespaces:
  profile:
    ttl: "1m"
    stale_threshold: "5m"
`)

	_, err := LoadConfig(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale_threshold")
}

func TestLoadConfig_MissingUpstream(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_addr: ":3000"
`)

	_, err := LoadConfig(path, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadConfig_InvalidEngine(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
l1:
  engine: "memcached"
`)

	_, err := LoadConfig(path, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/holder_cache.yaml", zap.NewNop())
	assert.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")

	_, err := LoadConfig(path, zap.NewNop())
	assert.Error(t, err)
}

func TestDuration_UnmarshalYAML_Invalid(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
namespaces:
  profile:
    ttl: "not-a-duration"
`)

	_, err := LoadConfig(path, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadConfig_ExplicitZeroStaleThresholdSticks(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
namespaces:
  profile:
    ttl: "1h"
    stale_threshold: "0s"
`)

	cfg, err := LoadConfig(path, zap.NewNop())
	require.NoError(t, err)

	// An explicit zero fresh window is a choice, not an omission; the 5m
	// default must not reappear.
	assert.Equal(t, time.Duration(0), cfg.Namespaces.Profile.Stale())
	assert.Equal(t, time.Duration(0), cfg.Namespaces.Profile.TTLPair().Fresh)
	assert.Equal(t, time.Hour, cfg.Namespaces.Profile.TTLPair().Stale)
}

func TestNamespaceConfig_TTLPair(t *testing.T) {
	threshold := Duration(time.Minute)
	ns := NamespaceConfig{
		TTL:            Duration(5 * time.Minute),
		StaleThreshold: &threshold,
	}

	assert.Equal(t, models.TTL{Fresh: time.Minute, Stale: 4 * time.Minute}, ns.TTLPair())
	assert.Equal(t, 5*time.Minute, ns.TTLPair().Total())

	// No threshold at all means no fresh window.
	bare := NamespaceConfig{TTL: Duration(time.Minute)}
	assert.Equal(t, time.Duration(0), bare.TTLPair().Fresh)
}
