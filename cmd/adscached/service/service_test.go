package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/mediacache"
	"github.com/adlens/adscache/common/repository"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{
			Name:        "adscached-test",
			Port:        8080,
			Environment: "test",
			LogLevel:    "error",
			LogFormat:   "text",
		},
		Cache: config.CacheConfig{
			Dir:        t.TempDir(),
			MaxAgeDays: 30,
			MaxSizeGB:  10,
		},
		AdsAPI: config.AdsAPIConfig{
			BaseURL:      "https://api.scrapecreators.com/v1/google",
			APIKey:       "test-key",
			Timeout:      5 * time.Second,
			DefaultLimit: 50,
		},
		Analyzer: config.AnalyzerConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
			APIKey:  "test-key",
			Model:   "gemini-2.0-flash",
			Timeout: 5 * time.Second,
		},
		Telemetry: config.TelemetryConfig{
			EnablePprof: false,
			PprofPort:   6060,
		},
	}
}

func testComponents(t *testing.T) *bootstrap.Components {
	components, err := bootstrap.Setup(context.Background(), "adscached-test",
		bootstrap.WithCustomConfig(testConfig(t)),
		bootstrap.WithCustomLogger(logger.New("error", "text")),
		bootstrap.WithoutTelemetry(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = components.Shutdown(context.Background())
	})
	return components
}

func testCache(t *testing.T, components *bootstrap.Components) *mediacache.Cache {
	repo := repository.NewMediaRecordRepository(components.DB)
	cache, err := mediacache.New(components.Config.Cache, repo, components.Logger)
	require.NoError(t, err)
	return cache
}

// fakeFetcher serves canned payloads keyed by URL
type fakeFetcher struct {
	images map[string]*clients.FetchResult
	videos map[string]*clients.FetchResult
	err    error

	imageCalls int
	videoCalls int
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) (*clients.FetchResult, error) {
	f.imageCalls++
	if f.err != nil {
		return nil, f.err
	}
	result, ok := f.images[url]
	if !ok {
		return nil, clients.ErrUnsupportedContent
	}
	return result, nil
}

func (f *fakeFetcher) FetchVideo(ctx context.Context, url string) (*clients.FetchResult, error) {
	f.videoCalls++
	if f.err != nil {
		return nil, f.err
	}
	result, ok := f.videos[url]
	if !ok {
		return nil, clients.ErrUnsupportedContent
	}
	return result, nil
}

// fakeAnalyzer returns a canned analysis and records what it was given
type fakeAnalyzer struct {
	text string
	err  error

	calls     int
	gotBytes  int
	gotMime   string
	gotPrompt string
}

func (f *fakeAnalyzer) AnalyzeVideo(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	f.calls++
	f.gotBytes = len(data)
	f.gotMime = mimeType
	f.gotPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}
