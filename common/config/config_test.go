package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SCRAPECREATORS_API_KEY", "test-key")
	t.Setenv("CACHE_DIR", t.TempDir())

	cfg, err := Load("adscached")
	require.NoError(t, err)

	assert.Equal(t, "adscached", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "development", cfg.Service.Environment)
	assert.Equal(t, 30, cfg.Cache.MaxAgeDays)
	assert.Equal(t, 50, cfg.AdsAPI.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.AdsAPI.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.Analyzer.Model)
	assert.Equal(t, 60*time.Second, cfg.Fetch.VideoTimeout)
	assert.False(t, cfg.Fetch.AllowPrivateHosts)
	assert.True(t, cfg.Telemetry.EnablePprof)
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_DIR", dir)
	t.Setenv("CACHE_MAX_AGE_DAYS", "7")
	t.Setenv("SCRAPECREATORS_API_KEY", "sc-key")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("ANALYZER_MODEL", "gemini-2.5-pro")
	t.Setenv("ADS_API_TIMEOUT", "10s")
	t.Setenv("FETCH_ALLOW_PRIVATE_HOSTS", "true")
	t.Setenv("ENABLE_PPROF", "false")

	cfg, err := Load("adscached")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, dir, cfg.Cache.Dir)
	assert.Equal(t, 7, cfg.Cache.MaxAgeDays)
	assert.Equal(t, "sc-key", cfg.AdsAPI.APIKey)
	assert.Equal(t, "gm-key", cfg.Analyzer.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Analyzer.Model)
	assert.Equal(t, 10*time.Second, cfg.AdsAPI.Timeout)
	assert.True(t, cfg.Fetch.AllowPrivateHosts)
	assert.False(t, cfg.Telemetry.EnablePprof)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Service: ServiceConfig{Port: 8080},
			Cache:   CacheConfig{Dir: "/tmp/cache", MaxAgeDays: 30},
			AdsAPI:  AdsAPIConfig{APIKey: "key"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Service.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid port")

	cfg = base()
	cfg.Cache.Dir = ""
	assert.ErrorContains(t, cfg.Validate(), "cache dir")

	cfg = base()
	cfg.Cache.MaxAgeDays = 0
	assert.ErrorContains(t, cfg.Validate(), "max age")

	cfg = base()
	cfg.AdsAPI.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "SCRAPECREATORS_API_KEY")
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{Cache: CacheConfig{Dir: "/var/cache/adscache"}}
	assert.Equal(t, filepath.Join("/var/cache/adscache", "media_cache.db"), cfg.DatabasePath())
}
