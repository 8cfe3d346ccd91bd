// Package mediacache implements the media cache: a hash-keyed file
// store for downloaded ad creatives paired with a relational index
// holding metadata and analysis results. Records are keyed by source
// URL, deduplicated by url hash, searchable via denormalized analysis
// fields, and reclaimed by an age-based eviction sweep.
package mediacache

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/models"
	"github.com/adlens/adscache/common/repository"
)

// Cache is the media cache store. One instance per process is the
// natural shape, but nothing here is global; construct it with its
// config and collaborators.
type Cache struct {
	records *repository.MediaRecordRepository
	log     *logger.Logger

	dir       string
	imagesDir string
	videosDir string
	maxSizeGB int
}

// New creates a cache rooted at cfg.Dir and ensures the per-type
// payload directories exist.
func New(cfg config.CacheConfig, records *repository.MediaRecordRepository, log *logger.Logger) (*Cache, error) {
	c := &Cache{
		records:   records,
		log:       log.WithComponent("mediacache"),
		dir:       cfg.Dir,
		imagesDir: filepath.Join(cfg.Dir, "images"),
		videosDir: filepath.Join(cfg.Dir, "videos"),
		maxSizeGB: cfg.MaxSizeGB,
	}

	for _, dir := range []string{c.imagesDir, c.videosDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media dir: %w", err)
		}
	}

	return c, nil
}

// StoreRequest carries everything needed to persist one media payload
type StoreRequest struct {
	URL         string
	MediaType   string
	Data        []byte
	ContentType string

	// Optional tags, search only
	BrandName string
	AdID      string

	// Video only
	DurationSeconds *float64
	HasAudio        *bool
}

// Store writes the payload file and upserts the index row for the URL.
// Re-storing a URL replaces both; attached analysis from the previous
// write is cleared. Returns the payload file location.
func (c *Cache) Store(ctx context.Context, req StoreRequest) (string, error) {
	if req.MediaType != models.MediaTypeImage && req.MediaType != models.MediaTypeVideo {
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, req.MediaType)
	}

	urlHash := HashURL(req.URL)
	path := c.payloadPath(urlHash, req.MediaType, req.ContentType)

	if err := writeFileAtomic(path, req.Data); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := &models.MediaRecord{
		URLHash:         urlHash,
		OriginalURL:     req.URL,
		FilePath:        path,
		MediaType:       req.MediaType,
		ContentType:     req.ContentType,
		FileSize:        int64(len(req.Data)),
		DownloadedAt:    now,
		LastAccessed:    now,
		BrandName:       optional(req.BrandName),
		AdID:            optional(req.AdID),
		DurationSeconds: req.DurationSeconds,
		HasAudio:        req.HasAudio,
	}

	if err := c.records.Upsert(ctx, record); err != nil {
		return "", err
	}

	c.log.Info("stored media in cache",
		"url_hash", urlHash,
		"media_type", req.MediaType,
		"size_bytes", len(req.Data))

	return path, nil
}

// Lookup returns the record for a URL, optionally constrained to one
// media type. A hit refreshes last_accessed. A row whose payload file
// has vanished is purged and reported as a miss, so callers never see
// a dangling reference.
func (c *Cache) Lookup(ctx context.Context, url, mediaTypeFilter string) (*models.MediaRecord, error) {
	urlHash := HashURL(url)

	record, err := c.records.GetByHash(ctx, urlHash, mediaTypeFilter)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotFound
	}

	if _, err := os.Stat(record.FilePath); err != nil {
		if os.IsNotExist(err) {
			if delErr := c.records.Delete(ctx, urlHash); delErr != nil {
				c.log.Error("failed to purge dangling record", "url_hash", urlHash, "error", delErr)
			}
			c.log.Warn("cached payload missing, purged index row",
				"url_hash", urlHash, "path", record.FilePath)
			return nil, ErrMissingPayload
		}

		// Unreadable but possibly still present: transient miss, the
		// row stays so a re-download can restore it in place
		c.log.Warn("cached payload unreadable",
			"url_hash", urlHash, "path", record.FilePath, "error", err)
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	if err := c.records.TouchLastAccessed(ctx, urlHash, now); err != nil {
		c.log.Warn("failed to refresh last_accessed", "url_hash", urlHash, "error", err)
	} else {
		record.LastAccessed = now
	}

	c.scrubCorruptAnalysis(record)

	return record, nil
}

// AttachAnalysis stores an analyzer result blob verbatim on an existing
// record and recomputes the derived quick-lookup fields in the same
// statement. Returns ErrNotFound when the URL was never stored.
func (c *Cache) AttachAnalysis(ctx context.Context, url string, analysis []byte) error {
	if !validBlob(analysis) {
		return ErrInvalidAnalysis
	}

	urlHash := HashURL(url)
	derived := extractDerived(analysis)

	rows, err := c.records.UpdateAnalysis(ctx, urlHash, datatypes.JSON(analysis), derived, time.Now().UTC())
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	c.log.Info("attached analysis results",
		"url_hash", urlHash,
		"has_people", *derived.HasPeople)

	return nil
}

// Search lists cached records matching all supplied filters, most
// recently accessed first.
func (c *Cache) Search(ctx context.Context, filters models.SearchFilters) ([]*models.MediaRecord, error) {
	records, err := c.records.Search(ctx, filters)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		c.scrubCorruptAnalysis(record)
	}

	return records, nil
}

// Stats aggregates the index into a single snapshot
func (c *Cache) Stats(ctx context.Context) (*models.CacheStats, error) {
	totals, err := c.records.AggregateTotals(ctx)
	if err != nil {
		return nil, err
	}

	images, err := c.records.AggregateByType(ctx, models.MediaTypeImage)
	if err != nil {
		return nil, err
	}

	videos, err := c.records.AggregateByType(ctx, models.MediaTypeVideo)
	if err != nil {
		return nil, err
	}

	stats := &models.CacheStats{
		TotalFiles:     totals.TotalFiles,
		TotalSizeBytes: totals.TotalSizeBytes,
		TotalSizeMB:    bytesToMB(totals.TotalSizeBytes),
		AnalyzedFiles:  totals.AnalyzedFiles,
		UniqueBrands:   totals.UniqueBrands,
		Images: models.MediaTypeStats{
			Count:     images.Count,
			SizeBytes: images.SizeBytes,
			SizeMB:    bytesToMB(images.SizeBytes),
			Analyzed:  images.Analyzed,
		},
		Videos: models.MediaTypeStats{
			Count:              videos.Count,
			SizeBytes:          videos.SizeBytes,
			SizeMB:             bytesToMB(videos.SizeBytes),
			Analyzed:           videos.Analyzed,
			AvgDurationSeconds: videos.AvgDuration,
		},
		CacheDir:  c.dir,
		MaxSizeGB: c.maxSizeGB,
	}
	stats.TotalSizeGB = round2(stats.TotalSizeMB / 1024)

	return stats, nil
}

// EvictOlderThan removes every record downloaded before now minus
// maxAgeDays. File deletion is best-effort; the index row goes
// regardless, so the index never references a file the sweep already
// tried to reclaim.
func (c *Cache) EvictOlderThan(ctx context.Context, maxAgeDays int) (*models.EvictionResult, error) {
	if maxAgeDays < 1 {
		return nil, fmt.Errorf("max age days must be positive, got %d", maxAgeDays)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	sweepLog := c.log.WithSweepID(uuid.New().String())

	records, err := c.records.ListOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &models.EvictionResult{}
	for _, record := range records {
		if err := os.Remove(record.FilePath); err != nil && !os.IsNotExist(err) {
			sweepLog.Warn("failed to delete cached file",
				"path", record.FilePath, "error", err)
			result.FailedFileDeletes++
		}

		if err := c.records.Delete(ctx, record.URLHash); err != nil {
			sweepLog.Error("failed to delete index row",
				"url_hash", record.URLHash, "error", err)
			continue
		}

		if record.MediaType == models.MediaTypeVideo {
			result.VideosRemoved++
		} else {
			result.ImagesRemoved++
		}
	}

	sweepLog.Info("eviction sweep complete",
		"cutoff", cutoff.Format(time.RFC3339),
		"images_removed", result.ImagesRemoved,
		"videos_removed", result.VideosRemoved,
		"failed_file_deletes", result.FailedFileDeletes)

	return result, nil
}

// Dir returns the cache root
func (c *Cache) Dir() string {
	return c.dir
}

// scrubCorruptAnalysis degrades an unparseable stored blob to "analysis
// absent" so a bad write never fails a read.
func (c *Cache) scrubCorruptAnalysis(record *models.MediaRecord) {
	if record.HasAnalysis() && !validBlob(record.AnalysisResults) {
		c.log.Warn("stored analysis blob is corrupt, treating as absent",
			"url_hash", record.URLHash)
		record.AnalysisResults = nil
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func bytesToMB(n int64) float64 {
	return round2(float64(n) / (1024 * 1024))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
