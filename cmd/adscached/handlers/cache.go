package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/service"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/models"
)

// CacheHandler handles cache maintenance endpoints
type CacheHandler struct {
	components   *bootstrap.Components
	cacheService *service.CacheService
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(c *container.Container) *CacheHandler {
	return &CacheHandler{
		components:   c.Components,
		cacheService: c.CacheService,
	}
}

type statsResponse struct {
	Success bool `json:"success"`
	*service.StatsReport
}

type searchResponse struct {
	Success bool `json:"success"`
	*service.SearchReport
}

type cleanupResponse struct {
	Success bool `json:"success"`
	*service.CleanupReport
}

// GetStats reports cache usage
// GET /api/v1/cache/stats
func (h *CacheHandler) GetStats(c echo.Context) error {
	report, err := h.cacheService.Stats(c.Request().Context())
	if err != nil {
		h.components.Logger.Error("failed to collect cache stats", "error", err)
		return fail(c, http.StatusInternalServerError, "failed to retrieve cache statistics")
	}

	return c.JSON(http.StatusOK, statsResponse{Success: true, StatsReport: report})
}

// Search lists cached media matching the query filters
// GET /api/v1/cache/search?brand_name=&has_people=&color_contains=&media_type=&limit=
func (h *CacheHandler) Search(c echo.Context) error {
	filters := models.SearchFilters{
		BrandName:     c.QueryParam("brand_name"),
		ColorContains: c.QueryParam("color_contains"),
		MediaType:     c.QueryParam("media_type"),
	}

	if filters.MediaType != "" &&
		filters.MediaType != models.MediaTypeImage &&
		filters.MediaType != models.MediaTypeVideo {
		return fail(c, http.StatusBadRequest, "media_type must be 'image' or 'video'")
	}

	if hp := c.QueryParam("has_people"); hp != "" {
		value, err := strconv.ParseBool(hp)
		if err != nil {
			return fail(c, http.StatusBadRequest, "has_people must be true or false")
		}
		filters.HasPeople = &value
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		filters.Limit = limit
	}

	report, err := h.cacheService.Search(c.Request().Context(), filters)
	if err != nil {
		h.components.Logger.Error("cache search failed", "error", err)
		return fail(c, http.StatusInternalServerError, "failed to search cached media")
	}

	return c.JSON(http.StatusOK, searchResponse{Success: true, SearchReport: report})
}

// Cleanup evicts old cache entries and reports what was removed
// POST /api/v1/cache/cleanup
func (h *CacheHandler) Cleanup(c echo.Context) error {
	var req struct {
		MaxAgeDays int `json:"max_age_days"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	h.components.Logger.Info("starting cache cleanup", "max_age_days", req.MaxAgeDays)

	report, err := h.cacheService.Cleanup(c.Request().Context(), req.MaxAgeDays)
	if err != nil {
		h.components.Logger.Error("cache cleanup failed", "error", err)
		return fail(c, http.StatusInternalServerError, "failed to cleanup cache")
	}

	return c.JSON(http.StatusOK, cleanupResponse{Success: true, CleanupReport: report})
}
