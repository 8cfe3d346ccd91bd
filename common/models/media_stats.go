package models

// CacheStats aggregates the cache index in a single snapshot
type CacheStats struct {
	TotalFiles     int64   `json:"total_files"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	TotalSizeMB    float64 `json:"total_size_mb"`
	TotalSizeGB    float64 `json:"total_size_gb"`

	// Records with analysis attached
	AnalyzedFiles int64 `json:"analyzed_files"`

	// Distinct non-null brand tags
	UniqueBrands int64 `json:"unique_brands"`

	Images MediaTypeStats `json:"images"`
	Videos MediaTypeStats `json:"videos"`

	CacheDir string `json:"cache_directory"`

	// Advisory limit from config; not enforced by the cache
	MaxSizeGB int `json:"max_size_gb"`
}

// MediaTypeStats holds per-type counts and sizes
type MediaTypeStats struct {
	Count     int64   `json:"count"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
	Analyzed  int64   `json:"analyzed"`

	// Videos only; nil when no durations recorded
	AvgDurationSeconds *float64 `json:"avg_duration_seconds,omitempty"`
}

// EvictionResult reports what an eviction sweep removed
type EvictionResult struct {
	ImagesRemoved int64 `json:"images_removed"`
	VideosRemoved int64 `json:"videos_removed"`

	// Rows whose backing file could not be deleted; rows are
	// removed regardless
	FailedFileDeletes int64 `json:"failed_file_deletes,omitempty"`
}

// TotalRemoved is the row count deleted by the sweep
func (e EvictionResult) TotalRemoved() int64 {
	return e.ImagesRemoved + e.VideosRemoved
}
