package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adlens/adscache/common/security"
)

// testLogger implements the clients Logger interface
type testLogger struct {
	t *testing.T
}

func (l *testLogger) Info(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[INFO] %s %v", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[ERROR] %s %v", msg, keysAndValues)
}

func (l *testLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[WARN] %s %v", msg, keysAndValues)
}

func (l *testLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.t.Logf("[DEBUG] %s %v", msg, keysAndValues)
}

// jpegBytes is a minimal JFIF header, enough for sniffing
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}

func newTestFetcher(t *testing.T) *MediaFetcher {
	guard := security.NewURLGuard(security.AllowPrivateHosts())
	return NewMediaFetcher(5*time.Second, 5*time.Second, guard, &testLogger{t: t})
}

func TestFetchImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(jpegBytes)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	result, err := fetcher.FetchImage(context.Background(), server.URL+"/creative.jpg")
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, result.Data)
	assert.Equal(t, "image/jpeg", result.ContentType)
}

func TestFetchImageRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContent))
	assert.Contains(t, err.Error(), "text/html")
}

func TestFetchImageSniffsGenericContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(jpegBytes)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	result, err := fetcher.FetchImage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", result.ContentType)
}

func TestFetchVideo(t *testing.T) {
	payload := []byte("fake mp4 payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write(payload)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	result, err := fetcher.FetchVideo(context.Background(), server.URL+"/creative.mp4")
	require.NoError(t, err)
	assert.Equal(t, payload, result.Data)
	assert.Equal(t, "video/mp4", result.ContentType)
}

func TestFetchVideoRejectsNonVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	_, err := fetcher.FetchVideo(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedContent))
}

func TestFetchSurfacesUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t)
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchGuardBlocksLocalTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("guard must reject the target before the request is made")
	}))
	defer server.Close()

	guard := security.NewURLGuard()
	fetcher := NewMediaFetcher(time.Second, time.Second, guard, &testLogger{t: t})
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to fetch")
}

func TestFetchRequiresURL(t *testing.T) {
	fetcher := newTestFetcher(t)
	_, err := fetcher.FetchImage(context.Background(), "   ")
	require.Error(t, err)
}
