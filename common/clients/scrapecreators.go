package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Ads API parameter errors, surfaced to callers for request validation
var (
	ErrMissingIdentifier = errors.New("either domain or advertiser_id must be provided")
	ErrRegionRequired    = errors.New("region is required when searching for political ads")
)

// ScrapeCreatorsClient talks to the ScrapeCreators Google Ad Library API
type ScrapeCreatorsClient struct {
	http         *HTTPClient
	baseURL      string
	apiKey       string
	defaultLimit int
	log          Logger
}

// NewScrapeCreatorsClient creates an ad library API client
func NewScrapeCreatorsClient(baseURL, apiKey string, timeout time.Duration, defaultLimit int, log Logger) *ScrapeCreatorsClient {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &ScrapeCreatorsClient{
		http:         NewHTTPClient(&http.Client{Timeout: timeout}, log),
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultLimit: defaultLimit,
		log:          log,
	}
}

// GetAdsParams narrows an ads query. Exactly one of Domain or
// AdvertiserID is required; Region is required when Topic is political.
type GetAdsParams struct {
	Domain       string
	AdvertiserID string
	Topic        string
	Region       string
	Cursor       string
	Limit        int
}

// AdsResult holds one page of ads, passed through verbatim from the API
type AdsResult struct {
	Ads        []json.RawMessage `json:"ads"`
	Cursor     *string           `json:"cursor"`
	StatusCode int               `json:"statusCode"`
}

// GetAds fetches currently running ads for a company. Results past the
// limit are trimmed client side; the cursor pages through the rest.
func (c *ScrapeCreatorsClient) GetAds(ctx context.Context, params GetAdsParams) (*AdsResult, error) {
	if params.Domain == "" && params.AdvertiserID == "" {
		return nil, ErrMissingIdentifier
	}
	if params.Topic == "political" && params.Region == "" {
		return nil, ErrRegionRequired
	}

	values := url.Values{}
	if params.Domain != "" {
		values.Set("domain", params.Domain)
	}
	if params.AdvertiserID != "" {
		values.Set("advertiser_id", params.AdvertiserID)
	}
	if params.Topic != "" {
		values.Set("topic", params.Topic)
	}
	if params.Region != "" {
		values.Set("region", params.Region)
	}
	if params.Cursor != "" {
		values.Set("cursor", params.Cursor)
	}

	endpoint := fmt.Sprintf("%s/company/ads?%s", c.baseURL, values.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Success    bool              `json:"success"`
		Ads        []json.RawMessage `json:"ads"`
		Cursor     *string           `json:"cursor"`
		StatusCode int               `json:"statusCode"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode ads response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("ad library API returned unsuccessful response: %s", bodySnippet(body))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = c.defaultLimit
	}
	if len(payload.Ads) > limit {
		payload.Ads = payload.Ads[:limit]
	}

	identifier := params.Domain
	if identifier == "" {
		identifier = params.AdvertiserID
	}
	c.log.Info("retrieved google ads", "identifier", identifier, "count", len(payload.Ads))

	return &AdsResult{
		Ads:        payload.Ads,
		Cursor:     payload.Cursor,
		StatusCode: payload.StatusCode,
	}, nil
}

// GetAdDetails fetches full detail for one ad, including variations,
// regions and impressions, passed through verbatim.
func (c *ScrapeCreatorsClient) GetAdDetails(ctx context.Context, adURL string) (json.RawMessage, error) {
	if strings.TrimSpace(adURL) == "" {
		return nil, errors.New("ad URL must be provided")
	}

	values := url.Values{}
	values.Set("url", adURL)
	endpoint := fmt.Sprintf("%s/ad?%s", c.baseURL, values.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode ad details response: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("ad library API returned unsuccessful response: %s", bodySnippet(body))
	}

	c.log.Info("retrieved ad details", "ad_url", adURL)

	return json.RawMessage(body), nil
}

func (c *ScrapeCreatorsClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := c.http.DoRequest(ctx, http.MethodGet, endpoint, nil, map[string]string{
		"x-api-key": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("ad library API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ad library API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ad library API returned status %d: %s", resp.StatusCode, bodySnippet(body))
	}

	return body, nil
}

// bodySnippet keeps upstream bodies readable inside error strings
func bodySnippet(body []byte) string {
	const max = 512
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
