package mediacache

import (
	"errors"
	"fmt"
)

// Cache errors. ErrMissingPayload wraps ErrNotFound so callers that
// only care about hit-or-miss can match both with a single errors.Is.
var (
	// ErrNotFound indicates no record exists for the URL
	ErrNotFound = errors.New("media not found in cache")

	// ErrMissingPayload indicates the index row existed but the payload
	// file was gone; the row has been purged (self-heal)
	ErrMissingPayload = fmt.Errorf("cached payload file missing: %w", ErrNotFound)

	// ErrInvalidMediaType indicates a media type outside image/video
	ErrInvalidMediaType = errors.New("media type must be image or video")

	// ErrInvalidAnalysis indicates an analysis blob that is not valid JSON
	ErrInvalidAnalysis = errors.New("analysis blob is not valid JSON")
)
