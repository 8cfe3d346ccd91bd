package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Cache     CacheConfig
	AdsAPI    AdsAPIConfig
	Analyzer  AnalyzerConfig
	Fetch     FetchConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// CacheConfig holds media cache settings
type CacheConfig struct {
	Dir        string
	MaxAgeDays int
	MaxSizeGB  int // advisory, surfaced via stats
}

// AdsAPIConfig holds ad library API settings
type AdsAPIConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	DefaultLimit int
}

// AnalyzerConfig holds video analyzer API settings
type AnalyzerConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// FetchConfig holds media download settings
type FetchConfig struct {
	ImageTimeout      time.Duration
	VideoTimeout      time.Duration
	AllowPrivateHosts bool // permits loopback/RFC1918 fetch targets, for local fixtures only
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"), // Default to text for development
		},
		Cache: CacheConfig{
			Dir:        getEnv("CACHE_DIR", defaultCacheDir()),
			MaxAgeDays: getEnvInt("CACHE_MAX_AGE_DAYS", 30),
			MaxSizeGB:  getEnvInt("CACHE_MAX_SIZE_GB", 10),
		},
		AdsAPI: AdsAPIConfig{
			BaseURL:      getEnv("ADS_API_BASE_URL", "https://api.scrapecreators.com/v1/google"),
			APIKey:       getEnv("SCRAPECREATORS_API_KEY", ""),
			Timeout:      getEnvDuration("ADS_API_TIMEOUT", 30*time.Second),
			DefaultLimit: getEnvInt("ADS_API_DEFAULT_LIMIT", 50),
		},
		Analyzer: AnalyzerConfig{
			BaseURL: getEnv("ANALYZER_BASE_URL", "https://generativelanguage.googleapis.com"),
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("ANALYZER_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvDuration("ANALYZER_TIMEOUT", 120*time.Second),
		},
		Fetch: FetchConfig{
			ImageTimeout:      getEnvDuration("FETCH_IMAGE_TIMEOUT", 30*time.Second),
			VideoTimeout:      getEnvDuration("FETCH_VIDEO_TIMEOUT", 60*time.Second),
			AllowPrivateHosts: getEnvBool("FETCH_ALLOW_PRIVATE_HOSTS", false),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", true),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Cache.Dir == "" {
		return fmt.Errorf("cache dir is required")
	}

	if c.Cache.MaxAgeDays < 1 {
		return fmt.Errorf("cache max age must be at least one day")
	}

	if c.AdsAPI.APIKey == "" {
		return fmt.Errorf("SCRAPECREATORS_API_KEY is required")
	}

	return nil
}

// DatabasePath returns the location of the cache index file,
// colocated with the media directories.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Cache.Dir, "media_cache.db")
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cache")
	}
	return filepath.Join(home, ".cache", "adscache")
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
