package models

import (
	"time"

	"gorm.io/datatypes"
)

// MediaRecord represents one cached media payload per source URL
// Maps to: media_cache table
type MediaRecord struct {
	// Deterministic digest of the source URL (md5 hex)
	URLHash string `gorm:"column:url_hash;primaryKey" json:"url_hash"`

	// Source URL the payload was downloaded from
	OriginalURL string `gorm:"column:original_url;not null" json:"original_url"`

	// Location of the payload file; owned exclusively by this record
	FilePath string `gorm:"column:file_path;not null" json:"file_path"`

	// 'image' or 'video'
	MediaType string `gorm:"column:media_type;default:image;index:idx_media_type" json:"media_type"`

	// MIME type reported at download time; picks the file extension
	ContentType string `gorm:"column:content_type" json:"content_type"`

	// Payload size in bytes
	FileSize int64 `gorm:"column:file_size" json:"file_size"`

	DownloadedAt time.Time `gorm:"column:downloaded_at" json:"downloaded_at"`

	// Refreshed on every successful lookup
	LastAccessed time.Time `gorm:"column:last_accessed;index:idx_last_accessed" json:"last_accessed"`

	// Optional caller-supplied tags, search only
	BrandName *string `gorm:"column:brand_name;index:idx_brand" json:"brand_name,omitempty"`
	AdID      *string `gorm:"column:ad_id;index:idx_ad_id" json:"ad_id,omitempty"`

	// Analyzer output stored verbatim; NULL until attached
	AnalysisResults  datatypes.JSON `gorm:"column:analysis_results" json:"analysis_results,omitempty"`
	AnalysisCachedAt *time.Time     `gorm:"column:analysis_cached_at" json:"analysis_cached_at,omitempty"`

	// Denormalized from analysis_results so search runs as one indexed query
	DominantColors *string `gorm:"column:dominant_colors;index:idx_colors" json:"dominant_colors,omitempty"`
	HasPeople      *bool   `gorm:"column:has_people;index:idx_has_people" json:"has_people,omitempty"`
	TextElements   *string `gorm:"column:text_elements" json:"text_elements,omitempty"`

	// Video only
	DurationSeconds *float64 `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	HasAudio        *bool    `gorm:"column:has_audio" json:"has_audio,omitempty"`
}

// TableName sets the sqlite table name
func (MediaRecord) TableName() string {
	return "media_cache"
}

// Media types for cached payloads
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// DerivedAnalysis carries the denormalized fields extracted from an
// analysis blob. Written together with the blob, never independently.
type DerivedAnalysis struct {
	DominantColors *string
	HasPeople      *bool
	TextElements   *string
}

// HasAnalysis reports whether analysis results are attached
func (m *MediaRecord) HasAnalysis() bool {
	return len(m.AnalysisResults) > 0
}
