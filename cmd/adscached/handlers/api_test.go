package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/routes"
	"github.com/adlens/adscache/cmd/adscached/service"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/mediacache"
	"github.com/adlens/adscache/common/models"
	"github.com/adlens/adscache/common/repository"
)

type fakeFetcher struct {
	images map[string]*clients.FetchResult
	videos map[string]*clients.FetchResult
	err    error
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) (*clients.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.images[url]; ok {
		return result, nil
	}
	return nil, clients.ErrUnsupportedContent
}

func (f *fakeFetcher) FetchVideo(ctx context.Context, url string) (*clients.FetchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.videos[url]; ok {
		return result, nil
	}
	return nil, clients.ErrUnsupportedContent
}

type fakeAnalyzer struct {
	text string
	err  error
}

func (f *fakeAnalyzer) AnalyzeVideo(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeAdsClient struct {
	result *clients.AdsResult
	detail json.RawMessage
	err    error
}

func (f *fakeAdsClient) GetAds(ctx context.Context, params clients.GetAdsParams) (*clients.AdsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeAdsClient) GetAdDetails(ctx context.Context, adURL string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

// testAPI wires the full HTTP surface over fakes for the outbound
// clients and a real cache in a temp dir.
type testAPI struct {
	echo     *echo.Echo
	cache    *mediacache.Cache
	fetcher  *fakeFetcher
	analyzer *fakeAnalyzer
	ads      *fakeAdsClient
}

func newTestAPI(t *testing.T) *testAPI {
	cfg := &config.Config{
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
			Model:   "gemini-2.0-flash",
			Timeout: 5 * time.Second,
		},
	}

	components, err := bootstrap.Setup(context.Background(), "adscached-test",
		bootstrap.WithCustomConfig(cfg),
		bootstrap.WithCustomLogger(logger.New("error", "text")),
		bootstrap.WithoutTelemetry(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = components.Shutdown(context.Background())
	})

	repo := repository.NewMediaRecordRepository(components.DB)
	cache, err := mediacache.New(cfg.Cache, repo, components.Logger)
	require.NoError(t, err)

	fetcher := &fakeFetcher{
		images: map[string]*clients.FetchResult{},
		videos: map[string]*clients.FetchResult{},
	}
	analyzer := &fakeAnalyzer{text: "Scene 1: product shot."}
	ads := &fakeAdsClient{result: &clients.AdsResult{}}

	c := &container.Container{
		Components:   components,
		MediaRepo:    repo,
		MediaCache:   cache,
		AdsService:   service.NewAdsService(ads, components.Logger),
		MediaService: service.NewMediaService(cache, fetcher, analyzer, components),
		CacheService: service.NewCacheService(cache, cfg.Cache.MaxAgeDays, components.Logger),
	}

	e := echo.New()
	routes.RegisterAdsRoutes(e, c)
	routes.RegisterMediaRoutes(e, c)
	routes.RegisterCacheRoutes(e, c)

	return &testAPI{echo: e, cache: cache, fetcher: fetcher, analyzer: analyzer, ads: ads}
}

func (a *testAPI) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func TestGetAdsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.ads.result = &clients.AdsResult{
		Ads: []json.RawMessage{
			json.RawMessage(`{"adId": "CR1"}`),
			json.RawMessage(`{"adId": "CR2"}`),
		},
		StatusCode: 200,
	}

	rec := api.do(http.MethodGet, "/api/v1/ads?domain=nike.com", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Len(t, gjson.GetBytes(body, "ads").Array(), 2)
	assert.Contains(t, gjson.GetBytes(body, "message").String(), "Successfully retrieved 2 ads")
}

func TestGetAdsEndpointBadLimit(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/ads?domain=nike.com&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, gjson.GetBytes(rec.Body.Bytes(), "success").Bool())
}

func TestGetAdsEndpointMissingIdentifier(t *testing.T) {
	api := newTestAPI(t)
	api.ads.err = clients.ErrMissingIdentifier

	rec := api.do(http.MethodGet, "/api/v1/ads", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.GetBytes(rec.Body.Bytes(), "error").String(), "domain or advertiser_id")
}

func TestGetAdsEndpointUpstreamFailure(t *testing.T) {
	api := newTestAPI(t)
	api.ads.err = assert.AnError

	rec := api.do(http.MethodGet, "/api/v1/ads?domain=nike.com", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAdDetailEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.ads.detail = json.RawMessage(`{"success": true, "variations": [{"format": "image"}]}`)

	rec := api.do(http.MethodGet, "/api/v1/ads/detail?url=https%3A%2F%2Fadstransparency.google.com%2Fad", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, "https://adstransparency.google.com/ad", gjson.GetBytes(body, "ad_url").String())
	assert.Contains(t, gjson.GetBytes(body, "message").String(), "1 variation(s)")
}

func TestAdDetailEndpointRequiresURL(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/ads/detail", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeImageEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.fetcher.images["https://cdn.example.com/ad.jpg"] = &clients.FetchResult{
		Data:        []byte("jpeg-bytes"),
		ContentType: "image/jpeg",
	}

	rec := api.do(http.MethodPost, "/api/v1/media/image/analyze",
		`{"media_url": "https://cdn.example.com/ad.jpg", "brand_name": "Nike"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, "Downloaded and cached new image", gjson.GetBytes(body, "cache_status").String())
	assert.NotEmpty(t, gjson.GetBytes(body, "image_data").String())
	assert.NotEmpty(t, gjson.GetBytes(body, "analysis_instructions").String())
}

func TestAnalyzeImageEndpointValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/media/image/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "media_url is required", gjson.GetBytes(rec.Body.Bytes(), "error").String())
}

func TestAnalyzeImageEndpointUnsupportedContent(t *testing.T) {
	api := newTestAPI(t)

	// No fixture registered, the fake rejects the URL
	rec := api.do(http.MethodPost, "/api/v1/media/image/analyze",
		`{"media_url": "https://cdn.example.com/page.html"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, gjson.GetBytes(rec.Body.Bytes(), "error").String(), "unsupported content type")
}

func TestAnalyzeVideoEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.fetcher.videos["https://cdn.example.com/ad.mp4"] = &clients.FetchResult{
		Data:        []byte("mp4-bytes"),
		ContentType: "video/mp4",
	}

	rec := api.do(http.MethodPost, "/api/v1/media/video/analyze",
		`{"media_url": "https://cdn.example.com/ad.mp4"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, "Downloaded and cached new video", gjson.GetBytes(body, "cache_status").String())
	assert.Equal(t, "Scene 1: product shot.", gjson.GetBytes(body, "analysis.analysis_text").String())
}

func TestAnalyzeVideoEndpointAnalyzerFailure(t *testing.T) {
	api := newTestAPI(t)
	api.fetcher.videos["https://cdn.example.com/ad.mp4"] = &clients.FetchResult{
		Data:        []byte("mp4-bytes"),
		ContentType: "video/mp4",
	}
	api.analyzer.err = assert.AnError

	rec := api.do(http.MethodPost, "/api/v1/media/video/analyze",
		`{"media_url": "https://cdn.example.com/ad.mp4"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "failed to process video", gjson.GetBytes(rec.Body.Bytes(), "error").String())
}

func TestAttachAnalysisEndpoint(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	_, err := api.cache.Store(ctx, mediacache.StoreRequest{
		URL:         "https://cdn.example.com/ad.jpg",
		MediaType:   models.MediaTypeImage,
		Data:        []byte("payload"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	rec := api.do(http.MethodPost, "/api/v1/media/analysis",
		`{"media_url": "https://cdn.example.com/ad.jpg", "analysis": {"description": "shoe"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Analysis results cached successfully", gjson.GetBytes(rec.Body.Bytes(), "message").String())

	record, err := api.cache.Lookup(ctx, "https://cdn.example.com/ad.jpg", models.MediaTypeImage)
	require.NoError(t, err)
	assert.True(t, record.HasAnalysis())
}

func TestAttachAnalysisEndpointNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/media/analysis",
		`{"media_url": "https://cdn.example.com/unknown.jpg", "analysis": {"a": 1}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no cached media found for this URL", gjson.GetBytes(rec.Body.Bytes(), "error").String())
}

func TestAttachAnalysisEndpointRequiresAnalysis(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/media/analysis",
		`{"media_url": "https://cdn.example.com/ad.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "analysis is required", gjson.GetBytes(rec.Body.Bytes(), "error").String())
}

func TestCacheStatsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.True(t, gjson.GetBytes(body, "stats.total_files").Exists())
	assert.Contains(t, gjson.GetBytes(body, "message").String(), "Cache contains 0 files")
}

func TestCacheSearchEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, err := api.cache.Store(context.Background(), mediacache.StoreRequest{
		URL:         "https://cdn.example.com/ad.jpg",
		MediaType:   models.MediaTypeImage,
		Data:        []byte("payload"),
		ContentType: "image/jpeg",
		BrandName:   "Nike",
	})
	require.NoError(t, err)

	rec := api.do(http.MethodGet, "/api/v1/cache/search?brand_name=Nike", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.Equal(t, int64(1), gjson.GetBytes(body, "count").Int())
	assert.Contains(t, gjson.GetBytes(body, "message").String(), "brand: Nike")
}

func TestCacheSearchEndpointValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/cache/search?media_type=audio", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "media_type must be 'image' or 'video'", gjson.GetBytes(rec.Body.Bytes(), "error").String())

	rec = api.do(http.MethodGet, "/api/v1/cache/search?has_people=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/cache/search?limit=-5", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheCleanupEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/cache/cleanup", `{"max_age_days": 10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.Bytes()
	assert.True(t, gjson.GetBytes(body, "success").Bool())
	assert.Equal(t, int64(10), gjson.GetBytes(body, "cleanup_stats.max_age_days").Int())
	assert.True(t, gjson.GetBytes(body, "cleanup_stats.files_remaining").Exists())
}
