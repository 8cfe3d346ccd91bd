package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/logger"
)

// adTransparencyURL is cited in every response carrying ad data
const adTransparencyURL = "https://adstransparency.google.com/"

// AdsClient is the slice of the ad library API the ads service needs
type AdsClient interface {
	GetAds(ctx context.Context, params clients.GetAdsParams) (*clients.AdsResult, error)
	GetAdDetails(ctx context.Context, adURL string) (json.RawMessage, error)
}

// AdsPage is one page of ads annotated with provenance
type AdsPage struct {
	Message         string            `json:"message"`
	Ads             []json.RawMessage `json:"ads"`
	Cursor          *string           `json:"cursor,omitempty"`
	StatusCode      int               `json:"statusCode"`
	TransparencyURL string            `json:"ad_transparency_url,omitempty"`
	SourceCitation  string            `json:"source_citation,omitempty"`
}

// AdsService exposes the ad library lookups
type AdsService struct {
	client AdsClient
	log    *logger.Logger
}

// NewAdsService creates a new ads service
func NewAdsService(client AdsClient, log *logger.Logger) *AdsService {
	return &AdsService{
		client: client,
		log:    log,
	}
}

// GetAds fetches one page of currently running ads for a company
func (s *AdsService) GetAds(ctx context.Context, params clients.GetAdsParams) (*AdsPage, error) {
	result, err := s.client.GetAds(ctx, params)
	if err != nil {
		return nil, err
	}

	identifier := params.Domain
	if identifier == "" {
		identifier = params.AdvertiserID
	}

	page := &AdsPage{
		Ads:        result.Ads,
		Cursor:     result.Cursor,
		StatusCode: result.StatusCode,
	}
	if page.Ads == nil {
		page.Ads = []json.RawMessage{}
	}
	if page.StatusCode == 0 {
		page.StatusCode = 200
	}

	if len(result.Ads) == 0 {
		page.Message = fmt.Sprintf("No current ads found for '%s' in Google Ads Transparency Center.", identifier)
		return page, nil
	}

	page.Message = fmt.Sprintf("Successfully retrieved %d ads for '%s' from Google Ads Transparency Center.", len(result.Ads), identifier)
	page.TransparencyURL = adTransparencyURL
	page.SourceCitation = fmt.Sprintf("[Google Ads Transparency Center - %s](%s)", identifier, adTransparencyURL)

	return page, nil
}

// GetAdDetails fetches full detail for one ad. The upstream document
// is passed through with provenance and a summary message added.
func (s *AdsService) GetAdDetails(ctx context.Context, adURL string) (map[string]interface{}, error) {
	raw, err := s.client.GetAdDetails(ctx, adURL)
	if err != nil {
		return nil, err
	}

	detail := make(map[string]interface{})
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode ad details: %w", err)
	}
	delete(detail, "success")

	detail["ad_url"] = adURL
	detail["ad_transparency_url"] = adTransparencyURL
	detail["source_citation"] = fmt.Sprintf("[Google Ad Details](%s)", adURL)

	variations, _ := detail["variations"].([]interface{})
	if len(variations) > 0 {
		detail["message"] = fmt.Sprintf("Successfully retrieved ad details with %d variation(s).", len(variations))
	} else {
		detail["message"] = "Ad details retrieved but no variations found."
	}

	return detail, nil
}
