package mediacache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adlens/adscache/common/models"
)

// Extension tables are fixed per media type; unrecognized content types
// fall back to the type's default.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var videoExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
	"video/x-msvideo": ".avi",
	"video/3gpp":      ".3gp",
}

// HashURL returns the deterministic cache key for a source URL.
// md5 is acceptable here: the hash is a cache key, not a security
// boundary.
func HashURL(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// ExtensionFor maps a content type to a payload file extension
func ExtensionFor(mediaType, contentType string) string {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(normalized, ";"); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}

	if mediaType == models.MediaTypeVideo {
		if ext, ok := videoExtensions[normalized]; ok {
			return ext
		}
		return ".mp4"
	}

	if ext, ok := imageExtensions[normalized]; ok {
		return ext
	}
	return ".jpg"
}

// payloadPath builds the file location for a record: one subtree per
// media type, filename is url hash plus extension.
func (c *Cache) payloadPath(urlHash, mediaType, contentType string) string {
	dir := c.imagesDir
	if mediaType == models.MediaTypeVideo {
		dir = c.videosDir
	}
	return filepath.Join(dir, urlHash+ExtensionFor(mediaType, contentType))
}

// writeFileAtomic replaces the payload as a whole file: write to a
// temp path, then rename over the destination. A crash mid-write leaves
// either the old payload or no payload, both handled by lookup.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize payload: %w", err)
	}

	return nil
}
