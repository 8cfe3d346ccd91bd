package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/adlens/adscache/common/security"
)

// ErrUnsupportedContent is returned when a fetched URL does not carry
// the expected media type. Callers map it to a client error rather
// than an upstream failure.
var ErrUnsupportedContent = errors.New("unsupported content type")

// Content-type markers accepted for each media kind. Matching is
// substring based because CDNs ship values like
// "image/jpeg;charset=binary" or bare "jpeg".
var (
	imageContentMarkers = []string{"image/", "jpeg", "jpg", "png", "gif", "webp"}
	videoContentMarkers = []string{"video/", "mp4", "mov", "webm", "avi"}
)

// FetchResult holds a downloaded media payload and its resolved
// content type.
type FetchResult struct {
	Data        []byte
	ContentType string
}

// MediaFetcher downloads ad creatives. Every target passes the URL
// guard before it is dialed, and responses are type-checked before
// they reach the cache.
type MediaFetcher struct {
	http         *HTTPClient
	guard        *security.URLGuard
	imageTimeout time.Duration
	videoTimeout time.Duration
	log          Logger
}

// NewMediaFetcher creates a fetcher with per-kind timeouts. Videos get
// a longer budget than images.
func NewMediaFetcher(imageTimeout, videoTimeout time.Duration, guard *security.URLGuard, log Logger) *MediaFetcher {
	if imageTimeout <= 0 {
		imageTimeout = 30 * time.Second
	}
	if videoTimeout <= 0 {
		videoTimeout = 60 * time.Second
	}
	return &MediaFetcher{
		http:         NewHTTPClient(&http.Client{}, log),
		guard:        guard,
		imageTimeout: imageTimeout,
		videoTimeout: videoTimeout,
		log:          log,
	}
}

// FetchImage downloads an image creative and verifies the content type.
func (f *MediaFetcher) FetchImage(ctx context.Context, url string) (*FetchResult, error) {
	return f.fetch(ctx, url, f.imageTimeout, imageContentMarkers, "image")
}

// FetchVideo downloads a video creative and verifies the content type.
func (f *MediaFetcher) FetchVideo(ctx context.Context, url string) (*FetchResult, error) {
	return f.fetch(ctx, url, f.videoTimeout, videoContentMarkers, "video")
}

func (f *MediaFetcher) fetch(ctx context.Context, url string, timeout time.Duration, markers []string, kind string) (*FetchResult, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%s URL must be provided", kind)
	}

	if err := f.guard.Validate(url); err != nil {
		return nil, fmt.Errorf("refusing to fetch %s: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := f.http.DoRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s download returned status %d", kind, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s body: %w", kind, err)
	}

	contentType := resolveContentType(resp.Header.Get("Content-Type"), data)
	if !matchesAny(contentType, markers) {
		return nil, fmt.Errorf("%w: URL does not point to a valid %s (content type %q)", ErrUnsupportedContent, kind, contentType)
	}

	f.log.Debug("fetched media", "kind", kind, "url", url, "content_type", contentType, "bytes", len(data))

	return &FetchResult{Data: data, ContentType: contentType}, nil
}

// resolveContentType prefers the response header but falls back to
// sniffing the payload when the header is missing or generic.
func resolveContentType(header string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(header))
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return mimetype.Detect(data).String()
	}
	return ct
}

func matchesAny(contentType string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(contentType, marker) {
			return true
		}
	}
	return false
}
