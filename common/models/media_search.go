package models

// SearchFilters narrows a cache search; zero values leave a filter
// unconstrained. Filters combine with AND.
type SearchFilters struct {
	BrandName string `json:"brand_name,omitempty"`

	// Pointer so "unset" and "false" stay distinct
	HasPeople *bool `json:"has_people,omitempty"`

	// Substring match against the delimited dominant_colors field
	ColorContains string `json:"color_contains,omitempty"`

	MediaType string `json:"media_type,omitempty"`

	Limit int `json:"limit,omitempty"`
}
