package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/adlens/adscache/common/db"
	"github.com/adlens/adscache/common/models"
)

// MediaRecordRepository handles index operations for cached media
type MediaRecordRepository struct {
	db *db.DB
}

// NewMediaRecordRepository creates a new media record repository
func NewMediaRecordRepository(database *db.DB) *MediaRecordRepository {
	return &MediaRecordRepository{db: database}
}

// Upsert inserts a record or replaces the existing row for the same
// url_hash. Replace semantics: every column takes the new value, so a
// re-store clears previously attached analysis fields.
func (r *MediaRecordRepository) Upsert(ctx context.Context, record *models.MediaRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url_hash"}},
			UpdateAll: true,
		}).
		Create(record).Error

	if err != nil {
		return fmt.Errorf("failed to upsert media record: %w", err)
	}

	return nil
}

// GetByHash retrieves a record by URL hash, optionally constrained to a
// media type. Returns (nil, nil) when no row matches.
func (r *MediaRecordRepository) GetByHash(ctx context.Context, urlHash, mediaType string) (*models.MediaRecord, error) {
	query := r.db.WithContext(ctx).Where("url_hash = ?", urlHash)
	if mediaType != "" {
		query = query.Where("media_type = ?", mediaType)
	}

	record := &models.MediaRecord{}
	err := query.First(record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media record: %w", err)
	}

	return record, nil
}

// TouchLastAccessed refreshes the recency timestamp for a record
func (r *MediaRecordRepository) TouchLastAccessed(ctx context.Context, urlHash string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.MediaRecord{}).
		Where("url_hash = ?", urlHash).
		Update("last_accessed", at).Error

	if err != nil {
		return fmt.Errorf("failed to touch last_accessed: %w", err)
	}

	return nil
}

// UpdateAnalysis writes the analysis blob, its derived fields and the
// analysis timestamp in a single statement so they stay consistent.
// Returns the number of rows updated (0 when the hash is unknown).
func (r *MediaRecordRepository) UpdateAnalysis(ctx context.Context, urlHash string, analysis datatypes.JSON, derived models.DerivedAnalysis, cachedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MediaRecord{}).
		Where("url_hash = ?", urlHash).
		Updates(map[string]interface{}{
			"analysis_results":   analysis,
			"analysis_cached_at": cachedAt,
			"dominant_colors":    derived.DominantColors,
			"has_people":         derived.HasPeople,
			"text_elements":      derived.TextElements,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to update analysis: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Delete removes a record row by URL hash
func (r *MediaRecordRepository) Delete(ctx context.Context, urlHash string) error {
	err := r.db.WithContext(ctx).
		Where("url_hash = ?", urlHash).
		Delete(&models.MediaRecord{}).Error

	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}

	return nil
}

// Search lists records matching all supplied filters, most recently
// accessed first.
func (r *MediaRecordRepository) Search(ctx context.Context, filters models.SearchFilters) ([]*models.MediaRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.MediaRecord{})

	if filters.BrandName != "" {
		query = query.Where("brand_name = ?", filters.BrandName)
	}
	if filters.HasPeople != nil {
		query = query.Where("has_people = ?", *filters.HasPeople)
	}
	if filters.ColorContains != "" {
		query = query.Where("dominant_colors LIKE ?", "%"+filters.ColorContains+"%")
	}
	if filters.MediaType != "" {
		query = query.Where("media_type = ?", filters.MediaType)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	var records []*models.MediaRecord
	err := query.
		Order("last_accessed DESC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to search media records: %w", err)
	}

	return records, nil
}

// Totals holds whole-index aggregates
type Totals struct {
	TotalFiles     int64 `gorm:"column:total_files"`
	TotalSizeBytes int64 `gorm:"column:total_size_bytes"`
	AnalyzedFiles  int64 `gorm:"column:analyzed_files"`
	UniqueBrands   int64 `gorm:"column:unique_brands"`
}

// TypeAggregate holds per-media-type aggregates
type TypeAggregate struct {
	Count       int64    `gorm:"column:count"`
	SizeBytes   int64    `gorm:"column:size_bytes"`
	Analyzed    int64    `gorm:"column:analyzed"`
	AvgDuration *float64 `gorm:"column:avg_duration"`
}

// AggregateTotals computes whole-index counters in one row
func (r *MediaRecordRepository) AggregateTotals(ctx context.Context) (*Totals, error) {
	query := `
		SELECT
			COUNT(*) AS total_files,
			COALESCE(SUM(file_size), 0) AS total_size_bytes,
			COALESCE(SUM(CASE WHEN analysis_results IS NOT NULL THEN 1 ELSE 0 END), 0) AS analyzed_files,
			COUNT(DISTINCT brand_name) AS unique_brands
		FROM media_cache
	`

	totals := &Totals{}
	if err := r.db.WithContext(ctx).Raw(query).Scan(totals).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}

	return totals, nil
}

// AggregateByType computes counters for one media type in one row
func (r *MediaRecordRepository) AggregateByType(ctx context.Context, mediaType string) (*TypeAggregate, error) {
	query := `
		SELECT
			COUNT(*) AS count,
			COALESCE(SUM(file_size), 0) AS size_bytes,
			COALESCE(SUM(CASE WHEN analysis_results IS NOT NULL THEN 1 ELSE 0 END), 0) AS analyzed,
			AVG(duration_seconds) AS avg_duration
		FROM media_cache
		WHERE media_type = ?
	`

	agg := &TypeAggregate{}
	if err := r.db.WithContext(ctx).Raw(query, mediaType).Scan(agg).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate %s stats: %w", mediaType, err)
	}

	return agg, nil
}

// ListOlderThan returns records downloaded before the cutoff, oldest
// first, for the eviction sweep.
func (r *MediaRecordRepository) ListOlderThan(ctx context.Context, cutoff time.Time) ([]*models.MediaRecord, error) {
	var records []*models.MediaRecord
	err := r.db.WithContext(ctx).
		Where("downloaded_at < ?", cutoff).
		Order("downloaded_at ASC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list records older than cutoff: %w", err)
	}

	return records, nil
}
