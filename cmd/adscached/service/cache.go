package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/mediacache"
	"github.com/adlens/adscache/common/models"
)

// defaultSearchLimit caps search results when the caller does not set
// a limit.
const defaultSearchLimit = 20

// StatsReport wraps a stats snapshot with a summary line
type StatsReport struct {
	Message string             `json:"message"`
	Stats   *models.CacheStats `json:"stats"`
}

// SearchReport lists matching records with the criteria echoed back
type SearchReport struct {
	Message string                `json:"message"`
	Results []*models.MediaRecord `json:"results"`
	Count   int                   `json:"count"`
}

// CleanupStats reports what a cleanup removed and what remains
type CleanupStats struct {
	TotalFilesRemoved int64   `json:"total_files_removed"`
	ImagesRemoved     int64   `json:"images_removed"`
	VideosRemoved     int64   `json:"videos_removed"`
	SpaceFreedMB      float64 `json:"space_freed_mb"`
	MaxAgeDays        int     `json:"max_age_days"`
	FilesRemaining    int64   `json:"files_remaining"`
	ImagesRemaining   int64   `json:"images_remaining"`
	VideosRemaining   int64   `json:"videos_remaining"`
	SpaceRemainingMB  float64 `json:"space_remaining_mb"`
}

// CleanupReport wraps cleanup stats with a summary line
type CleanupReport struct {
	Message      string        `json:"message"`
	CleanupStats *CleanupStats `json:"cleanup_stats"`
}

// CacheService fronts cache maintenance: stats, search and cleanup
type CacheService struct {
	cache             *mediacache.Cache
	defaultMaxAgeDays int
	log               *logger.Logger
}

// NewCacheService creates a new cache maintenance service
func NewCacheService(cache *mediacache.Cache, defaultMaxAgeDays int, log *logger.Logger) *CacheService {
	return &CacheService{
		cache:             cache,
		defaultMaxAgeDays: defaultMaxAgeDays,
		log:               log,
	}
}

// Stats collects a cache snapshot
func (s *CacheService) Stats(ctx context.Context) (*StatsReport, error) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect cache stats: %w", err)
	}

	s.log.Info("cache stats collected",
		"files", stats.TotalFiles,
		"size", humanize.Bytes(uint64(stats.TotalSizeBytes)))

	return &StatsReport{
		Message: fmt.Sprintf("Cache contains %d files (%d images, %d videos) using %.2fGB storage",
			stats.TotalFiles, stats.Images.Count, stats.Videos.Count, stats.TotalSizeGB),
		Stats: stats,
	}, nil
}

// Search lists cached records matching the filters. A zero limit
// defaults to 20.
func (s *CacheService) Search(ctx context.Context, filters models.SearchFilters) (*SearchReport, error) {
	if filters.Limit <= 0 {
		filters.Limit = defaultSearchLimit
	}

	results, err := s.cache.Search(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search cache: %w", err)
	}

	return &SearchReport{
		Message: fmt.Sprintf("Found %d cached media files matching criteria: %s",
			len(results), describeFilters(filters)),
		Results: results,
		Count:   len(results),
	}, nil
}

// Cleanup evicts records older than maxAgeDays and reports the
// before/after difference. A non-positive age falls back to the
// configured default.
func (s *CacheService) Cleanup(ctx context.Context, maxAgeDays int) (*CleanupReport, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = s.defaultMaxAgeDays
	}

	before, err := s.cache.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect cache stats: %w", err)
	}

	result, err := s.cache.EvictOlderThan(ctx, maxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("cleanup failed: %w", err)
	}

	after, err := s.cache.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect cache stats: %w", err)
	}

	spaceFreed := round2(before.TotalSizeMB - after.TotalSizeMB)
	stats := &CleanupStats{
		TotalFilesRemoved: result.TotalRemoved(),
		ImagesRemoved:     result.ImagesRemoved,
		VideosRemoved:     result.VideosRemoved,
		SpaceFreedMB:      spaceFreed,
		MaxAgeDays:        maxAgeDays,
		FilesRemaining:    after.TotalFiles,
		ImagesRemaining:   after.Images.Count,
		VideosRemaining:   after.Videos.Count,
		SpaceRemainingMB:  after.TotalSizeMB,
	}

	freedBytes := before.TotalSizeBytes - after.TotalSizeBytes
	if freedBytes < 0 {
		freedBytes = 0
	}
	s.log.Info("cache cleanup complete",
		"removed", stats.TotalFilesRemoved,
		"freed", humanize.Bytes(uint64(freedBytes)),
		"max_age_days", maxAgeDays)

	return &CleanupReport{
		Message: fmt.Sprintf("Cleanup completed: removed %d files (%d images, %d videos), freed %.2fMB",
			stats.TotalFilesRemoved, stats.ImagesRemoved, stats.VideosRemoved, stats.SpaceFreedMB),
		CleanupStats: stats,
	}, nil
}

// describeFilters echoes the active search criteria in the summary
// line, "no filters" when everything is unconstrained.
func describeFilters(filters models.SearchFilters) string {
	var criteria []string
	if filters.BrandName != "" {
		criteria = append(criteria, fmt.Sprintf("brand: %s", filters.BrandName))
	}
	if filters.HasPeople != nil {
		criteria = append(criteria, fmt.Sprintf("has_people: %t", *filters.HasPeople))
	}
	if filters.ColorContains != "" {
		criteria = append(criteria, fmt.Sprintf("color: %s", filters.ColorContains))
	}
	if filters.MediaType != "" {
		criteria = append(criteria, fmt.Sprintf("media_type: %s", filters.MediaType))
	}

	if len(criteria) == 0 {
		return "no filters"
	}
	return strings.Join(criteria, ", ")
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
