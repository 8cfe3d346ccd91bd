package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/mediacache"
	"github.com/adlens/adscache/common/models"
)

// Service-level errors the handlers map to status codes
var (
	ErrMissingMediaURL = errors.New("media URL must be provided")
	ErrCacheFailure    = errors.New("cache operation failed")
)

// Cache status strings surfaced in analyze responses
const (
	cacheStatusImageHit  = "Used cached image"
	cacheStatusImageMiss = "Downloaded and cached new image"
	cacheStatusVideoHit  = "Used cached video"
	cacheStatusVideoMiss = "Downloaded and cached new video"
)

// Fetcher downloads media payloads
type Fetcher interface {
	FetchImage(ctx context.Context, url string) (*clients.FetchResult, error)
	FetchVideo(ctx context.Context, url string) (*clients.FetchResult, error)
}

// Analyzer produces an analysis text for a video payload
type Analyzer interface {
	AnalyzeVideo(ctx context.Context, data []byte, mimeType, prompt string) (string, error)
}

// AnalyzeRequest identifies the media to analyze. Brand and ad id are
// optional tags carried into the cache for search.
type AnalyzeRequest struct {
	MediaURL  string `json:"media_url"`
	BrandName string `json:"brand_name,omitempty"`
	AdID      string `json:"ad_id,omitempty"`
}

// CacheInfo summarizes a cache record in responses
type CacheInfo struct {
	CachedAt         time.Time  `json:"cached_at"`
	AnalysisCachedAt *time.Time `json:"analysis_cached_at,omitempty"`
	FileSize         int64      `json:"file_size"`
	BrandName        *string    `json:"brand_name,omitempty"`
	AdID             *string    `json:"ad_id,omitempty"`
	DurationSeconds  *float64   `json:"duration_seconds,omitempty"`
}

// ImageAnalysis is the image flow response. A record with attached
// analysis returns the analysis; otherwise the payload itself goes
// back base64-encoded with extraction instructions for the caller's
// vision model.
type ImageAnalysis struct {
	Message     string `json:"message"`
	Cached      bool   `json:"cached"`
	CacheStatus string `json:"cache_status"`
	MediaURL    string `json:"media_url"`
	BrandName   string `json:"brand_name,omitempty"`
	AdID        string `json:"ad_id,omitempty"`

	Analysis  json.RawMessage `json:"analysis,omitempty"`
	CacheInfo *CacheInfo      `json:"cache_info,omitempty"`

	ImageData            string `json:"image_data,omitempty"`
	AnalysisInstructions string `json:"analysis_instructions,omitempty"`

	TransparencyURL string `json:"ad_transparency_url"`
	SourceCitation  string `json:"source_citation"`
}

// VideoAnalysis is the video flow response
type VideoAnalysis struct {
	Message     string `json:"message"`
	Cached      bool   `json:"cached"`
	CacheStatus string `json:"cache_status,omitempty"`
	MediaURL    string `json:"media_url"`
	BrandName   string `json:"brand_name,omitempty"`
	AdID        string `json:"ad_id,omitempty"`

	Analysis  json.RawMessage `json:"analysis"`
	CacheInfo *CacheInfo      `json:"cache_info,omitempty"`

	TransparencyURL string `json:"ad_transparency_url"`
	SourceCitation  string `json:"source_citation"`
}

// MediaService runs the analyze flows on top of the media cache
type MediaService struct {
	cache      *mediacache.Cache
	fetcher    Fetcher
	analyzer   Analyzer
	components *bootstrap.Components
}

// NewMediaService creates a new media service
func NewMediaService(cache *mediacache.Cache, fetcher Fetcher, analyzer Analyzer, components *bootstrap.Components) *MediaService {
	return &MediaService{
		cache:      cache,
		fetcher:    fetcher,
		analyzer:   analyzer,
		components: components,
	}
}

// AnalyzeImage serves an image ready for analysis. Cached analysis is
// returned directly; otherwise the payload comes from the cache or a
// fresh download and goes back with extraction instructions. The
// caller posts its analysis back through AttachAnalysis.
func (s *MediaService) AnalyzeImage(ctx context.Context, req AnalyzeRequest) (*ImageAnalysis, error) {
	defer s.components.Telemetry.RecordDuration("analyze_image", time.Now())

	mediaURL := strings.TrimSpace(req.MediaURL)
	if mediaURL == "" {
		return nil, ErrMissingMediaURL
	}

	record, err := s.cache.Lookup(ctx, mediaURL, models.MediaTypeImage)
	if err != nil && !errors.Is(err, mediacache.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrCacheFailure, err)
	}

	if record != nil && record.HasAnalysis() {
		return &ImageAnalysis{
			Message:         fmt.Sprintf("Retrieved cached analysis for %s", mediaURL),
			Cached:          true,
			CacheStatus:     cacheStatusImageHit,
			MediaURL:        mediaURL,
			BrandName:       req.BrandName,
			AdID:            req.AdID,
			Analysis:        json.RawMessage(record.AnalysisResults),
			CacheInfo:       cacheInfoFromRecord(record),
			TransparencyURL: adTransparencyURL,
			SourceCitation:  sourceCitation(req.BrandName, req.AdID, mediaURL),
		}, nil
	}

	var data []byte
	if record != nil {
		data, err = os.ReadFile(record.FilePath)
		if err != nil {
			// Unreadable payload heals through a re-download
			s.components.Logger.Warn("cached image unreadable, re-downloading",
				"path", record.FilePath, "error", err)
			record = nil
		}
	}

	if record == nil {
		result, err := s.fetcher.FetchImage(ctx, mediaURL)
		if err != nil {
			return nil, err
		}

		if _, err := s.cache.Store(ctx, mediacache.StoreRequest{
			URL:         mediaURL,
			MediaType:   models.MediaTypeImage,
			Data:        result.Data,
			ContentType: result.ContentType,
			BrandName:   req.BrandName,
			AdID:        req.AdID,
		}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheFailure, err)
		}

		data = result.Data
	}

	cacheStatus := cacheStatusImageMiss
	if record != nil {
		cacheStatus = cacheStatusImageHit
	}

	return &ImageAnalysis{
		Message:              "Image downloaded and ready for analysis.",
		Cached:               record != nil,
		CacheStatus:          cacheStatus,
		MediaURL:             mediaURL,
		BrandName:            req.BrandName,
		AdID:                 req.AdID,
		ImageData:            base64.StdEncoding.EncodeToString(data),
		AnalysisInstructions: imageAnalysisInstructions,
		TransparencyURL:      adTransparencyURL,
		SourceCitation:       sourceCitation(req.BrandName, req.AdID, mediaURL),
	}, nil
}

// AnalyzeVideo serves a video analysis. Cached analysis is returned
// directly; otherwise the payload comes from the cache or a fresh
// download, runs through the analyzer, and the result is attached to
// the record before it is returned.
func (s *MediaService) AnalyzeVideo(ctx context.Context, req AnalyzeRequest) (*VideoAnalysis, error) {
	defer s.components.Telemetry.RecordDuration("analyze_video", time.Now())

	mediaURL := strings.TrimSpace(req.MediaURL)
	if mediaURL == "" {
		return nil, ErrMissingMediaURL
	}

	record, err := s.cache.Lookup(ctx, mediaURL, models.MediaTypeVideo)
	if err != nil && !errors.Is(err, mediacache.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrCacheFailure, err)
	}

	if record != nil && record.HasAnalysis() {
		return &VideoAnalysis{
			Message:         fmt.Sprintf("Retrieved cached video analysis for %s", mediaURL),
			Cached:          true,
			CacheStatus:     cacheStatusVideoHit,
			MediaURL:        mediaURL,
			BrandName:       req.BrandName,
			AdID:            req.AdID,
			Analysis:        json.RawMessage(record.AnalysisResults),
			CacheInfo:       cacheInfoFromRecord(record),
			TransparencyURL: adTransparencyURL,
			SourceCitation:  sourceCitation(req.BrandName, req.AdID, mediaURL),
		}, nil
	}

	var (
		data        []byte
		contentType string
		duration    *float64
	)

	if record != nil {
		data, err = os.ReadFile(record.FilePath)
		if err != nil {
			s.components.Logger.Warn("cached video unreadable, re-downloading",
				"path", record.FilePath, "error", err)
			record = nil
		} else {
			contentType = record.ContentType
			duration = record.DurationSeconds
		}
	}

	if record == nil {
		result, err := s.fetcher.FetchVideo(ctx, mediaURL)
		if err != nil {
			return nil, err
		}

		if _, err := s.cache.Store(ctx, mediacache.StoreRequest{
			URL:         mediaURL,
			MediaType:   models.MediaTypeVideo,
			Data:        result.Data,
			ContentType: result.ContentType,
			BrandName:   req.BrandName,
			AdID:        req.AdID,
		}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCacheFailure, err)
		}

		data = result.Data
		contentType = result.ContentType
	}

	text, err := s.analyzer.AnalyzeVideo(ctx, data, contentType, videoAnalysisPrompt)
	if err != nil {
		return nil, fmt.Errorf("video analysis failed: %w", err)
	}

	blob, err := s.videoAnalysisBlob(text, int64(len(data)), duration, contentType)
	if err != nil {
		return nil, err
	}

	if err := s.cache.AttachAnalysis(ctx, mediaURL, blob); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheFailure, err)
	}

	cacheStatus := cacheStatusVideoMiss
	if record != nil {
		cacheStatus = cacheStatusVideoHit
	}

	s.components.Logger.Info("video analysis completed",
		"media_url", mediaURL,
		"cached_payload", record != nil,
		"analysis_bytes", len(blob))

	return &VideoAnalysis{
		Message:         "Video analysis completed successfully",
		Cached:          record != nil,
		CacheStatus:     cacheStatus,
		MediaURL:        mediaURL,
		BrandName:       req.BrandName,
		AdID:            req.AdID,
		Analysis:        blob,
		TransparencyURL: adTransparencyURL,
		SourceCitation:  sourceCitation(req.BrandName, req.AdID, mediaURL),
	}, nil
}

// AttachAnalysis stores a caller-produced analysis on a cached record.
// The image flow hands the payload to the caller's vision model; this
// is the write-back half of that round trip.
func (s *MediaService) AttachAnalysis(ctx context.Context, mediaURL string, analysis json.RawMessage) error {
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return ErrMissingMediaURL
	}

	if err := s.cache.AttachAnalysis(ctx, mediaURL, analysis); err != nil {
		if errors.Is(err, mediacache.ErrNotFound) || errors.Is(err, mediacache.ErrInvalidAnalysis) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrCacheFailure, err)
	}

	return nil
}

// videoAnalysisBlob prepares the analyzer output for storage. Output
// that is already a JSON object is attached verbatim; free text is
// wrapped with model and payload metadata.
func (s *MediaService) videoAnalysisBlob(text string, fileSize int64, duration *float64, contentType string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	blob, err := json.Marshal(map[string]interface{}{
		"analysis_text": text,
		"model_used":    s.components.Config.Analyzer.Model,
		"analyzed_at":   time.Now().UTC().Format(time.RFC3339),
		"video_metadata": map[string]interface{}{
			"file_size_mb":     math.Round(float64(fileSize)/(1024*1024)*100) / 100,
			"duration_seconds": duration,
			"content_type":     contentType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	return blob, nil
}

func cacheInfoFromRecord(record *models.MediaRecord) *CacheInfo {
	return &CacheInfo{
		CachedAt:         record.DownloadedAt,
		AnalysisCachedAt: record.AnalysisCachedAt,
		FileSize:         record.FileSize,
		BrandName:        record.BrandName,
		AdID:             record.AdID,
		DurationSeconds:  record.DurationSeconds,
	}
}

// sourceCitation builds the markdown citation included with media
// responses.
func sourceCitation(brandName, adID, mediaURL string) string {
	brand := brandName
	if brand == "" {
		brand = "Ad"
	}
	id := adID
	if id == "" {
		id = "Unknown"
	}
	return fmt.Sprintf("[Google Ads Transparency Center - %s #%s](%s)", brand, id, mediaURL)
}
