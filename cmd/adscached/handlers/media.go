package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/service"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/mediacache"
)

// MediaHandler handles the analyze flows and the analysis write-back
type MediaHandler struct {
	components   *bootstrap.Components
	mediaService *service.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(c *container.Container) *MediaHandler {
	return &MediaHandler{
		components:   c.Components,
		mediaService: c.MediaService,
	}
}

type imageAnalysisResponse struct {
	Success bool `json:"success"`
	*service.ImageAnalysis
}

type videoAnalysisResponse struct {
	Success bool `json:"success"`
	*service.VideoAnalysis
}

// AnalyzeImage serves an ad image for analysis
// POST /api/v1/media/image/analyze
func (h *MediaHandler) AnalyzeImage(c echo.Context) error {
	var req service.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.MediaURL) == "" {
		return fail(c, http.StatusBadRequest, "media_url is required")
	}

	h.components.Logger.Info("analyzing ad image",
		"media_url", req.MediaURL, "brand_name", req.BrandName, "ad_id", req.AdID)

	result, err := h.mediaService.AnalyzeImage(c.Request().Context(), req)
	if err != nil {
		return h.mapMediaError(c, err, "image")
	}

	return c.JSON(http.StatusOK, imageAnalysisResponse{Success: true, ImageAnalysis: result})
}

// AnalyzeVideo runs the video analysis flow
// POST /api/v1/media/video/analyze
func (h *MediaHandler) AnalyzeVideo(c echo.Context) error {
	var req service.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.MediaURL) == "" {
		return fail(c, http.StatusBadRequest, "media_url is required")
	}

	h.components.Logger.Info("analyzing ad video",
		"media_url", req.MediaURL, "brand_name", req.BrandName, "ad_id", req.AdID)

	result, err := h.mediaService.AnalyzeVideo(c.Request().Context(), req)
	if err != nil {
		return h.mapMediaError(c, err, "video")
	}

	return c.JSON(http.StatusOK, videoAnalysisResponse{Success: true, VideoAnalysis: result})
}

// AttachAnalysis stores caller-produced analysis results on a cached record
// POST /api/v1/media/analysis
func (h *MediaHandler) AttachAnalysis(c echo.Context) error {
	var req struct {
		MediaURL string          `json:"media_url"`
		Analysis json.RawMessage `json:"analysis"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.MediaURL) == "" {
		return fail(c, http.StatusBadRequest, "media_url is required")
	}
	if len(req.Analysis) == 0 {
		return fail(c, http.StatusBadRequest, "analysis is required")
	}

	if err := h.mediaService.AttachAnalysis(c.Request().Context(), req.MediaURL, req.Analysis); err != nil {
		return h.mapMediaError(c, err, "analysis")
	}

	h.components.Logger.Info("analysis results attached", "media_url", req.MediaURL)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Analysis results cached successfully",
		"media_url": req.MediaURL,
	})
}

// mapMediaError translates service errors into response codes: caller
// mistakes are 400/404, cache faults 500, everything else reached the
// network and is a bad gateway.
func (h *MediaHandler) mapMediaError(c echo.Context, err error, kind string) error {
	switch {
	case errors.Is(err, service.ErrMissingMediaURL):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, clients.ErrUnsupportedContent):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, mediacache.ErrInvalidAnalysis):
		return fail(c, http.StatusBadRequest, "analysis must be a JSON object")
	case errors.Is(err, mediacache.ErrNotFound):
		return fail(c, http.StatusNotFound, "no cached media found for this URL")
	case errors.Is(err, service.ErrCacheFailure):
		h.components.Logger.Error("cache failure", "kind", kind, "error", err)
		return fail(c, http.StatusInternalServerError, "cache operation failed")
	default:
		h.components.Logger.Error("media flow failed", "kind", kind, "error", err)
		return fail(c, http.StatusBadGateway, fmt.Sprintf("failed to process %s", kind))
	}
}
