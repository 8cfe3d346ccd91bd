package mediacache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adlens/adscache/common/models"
)

func TestHashURLDeterminism(t *testing.T) {
	url := "https://example.com/ads/banner.jpg"

	first := HashURL(url)
	second := HashURL(url)

	if first != second {
		t.Errorf("hash not stable: %s vs %s", first, second)
	}

	// Known md5 vector
	if first != "1cd163038c4d033e2398cde7cb583d1d" {
		t.Errorf("unexpected hash for %s: %s", url, first)
	}

	other := HashURL("https://tpc.googlesyndication.com/archive/simgad/123")
	if other != "44d85acfa8f008e4c943e10d3f97a81d" {
		t.Errorf("unexpected hash: %s", other)
	}

	if first == other {
		t.Error("distinct URLs produced the same hash")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		mediaType   string
		contentType string
		want        string
	}{
		{"jpeg", models.MediaTypeImage, "image/jpeg", ".jpg"},
		{"jpg alias", models.MediaTypeImage, "image/jpg", ".jpg"},
		{"png", models.MediaTypeImage, "image/png", ".png"},
		{"gif", models.MediaTypeImage, "image/gif", ".gif"},
		{"webp", models.MediaTypeImage, "image/webp", ".webp"},
		{"unknown image falls back", models.MediaTypeImage, "image/x-icon", ".jpg"},
		{"empty image falls back", models.MediaTypeImage, "", ".jpg"},
		{"charset parameter stripped", models.MediaTypeImage, "image/png; charset=binary", ".png"},
		{"uppercase normalized", models.MediaTypeImage, "IMAGE/PNG", ".png"},
		{"mp4", models.MediaTypeVideo, "video/mp4", ".mp4"},
		{"quicktime", models.MediaTypeVideo, "video/quicktime", ".mov"},
		{"webm", models.MediaTypeVideo, "video/webm", ".webm"},
		{"avi", models.MediaTypeVideo, "video/x-msvideo", ".avi"},
		{"3gpp", models.MediaTypeVideo, "video/3gpp", ".3gp"},
		{"unknown video falls back", models.MediaTypeVideo, "video/x-flv", ".mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtensionFor(tt.mediaType, tt.contentType)
			if got != tt.want {
				t.Errorf("ExtensionFor(%q, %q) = %q, want %q", tt.mediaType, tt.contentType, got, tt.want)
			}
		})
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.jpg")

	if err := writeFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := writeFileAtomic(path, []byte("second payload")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != "second payload" {
		t.Errorf("unexpected content: %q", data)
	}

	// No temp file left behind
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}
}
