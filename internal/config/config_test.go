package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8001", cfg.Advisory.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Advisory.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Advisory.HealthTimeout)
	assert.Equal(t, 18, cfg.Chain.AssetDecimals)
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 20*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ADVISORY_BASE_URL", "http://advisory:9000")
	t.Setenv("REFRESH_INTERVAL", "45s")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("ASSET_DECIMALS", "6")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://advisory:9000", cfg.Advisory.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Refresh.Interval)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 6, cfg.Chain.AssetDecimals)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "soon")
	t.Setenv("ASSET_DECIMALS", "many")
	t.Setenv("ADVISORY_REQUESTS_PER_SEC", "fast")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// Malformed values fall back to defaults rather than failing startup
	assert.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 18, cfg.Chain.AssetDecimals)
	assert.Equal(t, 5.0, cfg.Advisory.RequestsPerSec)
}
