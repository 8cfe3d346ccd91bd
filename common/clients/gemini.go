package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Gemini file states. Uploaded videos start in PROCESSING and must
// reach ACTIVE before they can be referenced from a prompt.
const (
	geminiStateProcessing = "PROCESSING"
	geminiStateActive     = "ACTIVE"
	geminiStateFailed     = "FAILED"
)

// GeminiClient analyzes videos through the Gemini API. Videos are too
// large to inline, so the flow is upload via the File API, wait for
// server-side processing, generate against the file reference, then
// delete the upload.
type GeminiClient struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
	model   string
	log     Logger

	pollInterval   time.Duration
	processingWait time.Duration
}

// GeminiFile is the subset of the File API resource the client tracks
type GeminiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	State    string `json:"state"`
	MimeType string `json:"mimeType"`
}

// NewGeminiClient creates a video analyzer client
func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration, log Logger) *GeminiClient {
	return &GeminiClient{
		http:           NewHTTPClient(&http.Client{Timeout: timeout}, log),
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		model:          model,
		log:            log,
		pollInterval:   2 * time.Second,
		processingWait: 5 * time.Minute,
	}
}

// AnalyzeVideo runs the full flow for one video payload and returns
// the analyzer's text. The uploaded file is deleted afterwards
// regardless of outcome; deletion failures are logged, not returned.
func (c *GeminiClient) AnalyzeVideo(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("analyzer API key is not configured (set GEMINI_API_KEY)")
	}

	file, err := c.UploadFile(ctx, data, mimeType, "ad-video")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := c.DeleteFile(context.WithoutCancel(ctx), file.Name); err != nil {
			c.log.Warn("failed to delete analyzer upload", "file", file.Name, "error", err)
		}
	}()

	file, err = c.WaitForActive(ctx, file)
	if err != nil {
		return "", err
	}

	return c.GenerateContent(ctx, file.URI, mimeType, prompt)
}

// UploadFile pushes a payload through the resumable upload protocol
// and returns the created file resource.
func (c *GeminiClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (*GeminiFile, error) {
	startBody, err := json.Marshal(map[string]interface{}{
		"file": map[string]string{"display_name": displayName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload request: %w", err)
	}

	startResp, err := c.http.DoRequest(ctx, http.MethodPost, c.baseURL+"/upload/v1beta/files", bytes.NewReader(startBody), map[string]string{
		"x-goog-api-key":                      c.apiKey,
		"X-Goog-Upload-Protocol":              "resumable",
		"X-Goog-Upload-Command":               "start",
		"X-Goog-Upload-Header-Content-Length": strconv.Itoa(len(data)),
		"X-Goog-Upload-Header-Content-Type":   mimeType,
		"Content-Type":                        "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer upload start failed: %w", err)
	}
	io.Copy(io.Discard, startResp.Body)
	startResp.Body.Close()

	if startResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer upload start returned status %d", startResp.StatusCode)
	}

	uploadURL := startResp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, fmt.Errorf("analyzer did not return an upload URL")
	}

	resp, err := c.http.DoRequest(ctx, http.MethodPost, uploadURL, bytes.NewReader(data), map[string]string{
		"X-Goog-Upload-Offset":  "0",
		"X-Goog-Upload-Command": "upload, finalize",
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyzer upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer upload returned status %d: %s", resp.StatusCode, bodySnippet(body))
	}

	var payload struct {
		File GeminiFile `json:"file"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer upload response: %w", err)
	}
	if payload.File.Name == "" {
		return nil, fmt.Errorf("analyzer upload response is missing the file name: %s", bodySnippet(body))
	}

	c.log.Info("uploaded video to analyzer",
		"file", payload.File.Name, "state", payload.File.State, "bytes", len(data))

	return &payload.File, nil
}

// GetFile fetches the current state of an uploaded file
func (c *GeminiClient) GetFile(ctx context.Context, name string) (*GeminiFile, error) {
	resp, err := c.http.DoRequest(ctx, http.MethodGet, c.baseURL+"/v1beta/"+name, nil, map[string]string{
		"x-goog-api-key": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer file status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analyzer file status: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer file status returned %d: %s", resp.StatusCode, bodySnippet(body))
	}

	var file GeminiFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer file status: %w", err)
	}

	return &file, nil
}

// WaitForActive polls the uploaded file until server-side processing
// finishes. Returns an error if processing fails or the wait budget
// runs out.
func (c *GeminiClient) WaitForActive(ctx context.Context, file *GeminiFile) (*GeminiFile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.processingWait)
	defer cancel()

	for {
		switch file.State {
		case geminiStateActive:
			return file, nil
		case geminiStateFailed:
			return nil, fmt.Errorf("analyzer failed to process file %s", file.Name)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for analyzer file %s: %w", file.Name, ctx.Err())
		case <-time.After(c.pollInterval):
		}

		next, err := c.GetFile(ctx, file.Name)
		if err != nil {
			return nil, err
		}
		file = next
	}
}

// GenerateContent asks the model to analyze an uploaded file and
// returns the concatenated candidate text.
func (c *GeminiClient) GenerateContent(ctx context.Context, fileURI, mimeType, prompt string) (string, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"file_data": map[string]string{"mime_type": mimeType, "file_uri": fileURI}},
					{"text": prompt},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode analyzer request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	resp, err := c.http.DoRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody), map[string]string{
		"x-goog-api-key": c.apiKey,
		"Content-Type":   "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read analyzer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("analyzer returned status %d: %s", resp.StatusCode, bodySnippet(body))
	}

	var payload struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode analyzer response: %w", err)
	}
	if len(payload.Candidates) == 0 {
		return "", fmt.Errorf("analyzer returned no candidates: %s", bodySnippet(body))
	}

	var text strings.Builder
	for _, part := range payload.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("analyzer returned an empty analysis")
	}

	return text.String(), nil
}

// DeleteFile removes an uploaded file from the analyzer's storage
func (c *GeminiClient) DeleteFile(ctx context.Context, name string) error {
	resp, err := c.http.DoRequest(ctx, http.MethodDelete, c.baseURL+"/v1beta/"+name, nil, map[string]string{
		"x-goog-api-key": c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("analyzer file delete failed: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("analyzer file delete returned status %d", resp.StatusCode)
	}

	return nil
}
