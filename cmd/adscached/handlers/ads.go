package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/service"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
)

// AdsHandler handles ad library lookups
type AdsHandler struct {
	components *bootstrap.Components
	adsService *service.AdsService
}

// NewAdsHandler creates a new ads handler
func NewAdsHandler(c *container.Container) *AdsHandler {
	return &AdsHandler{
		components: c.Components,
		adsService: c.AdsService,
	}
}

type adsResponse struct {
	Success bool `json:"success"`
	*service.AdsPage
}

// GetAds retrieves currently running ads for a company
// GET /api/v1/ads?domain=|advertiser_id=&topic=&region=&limit=&cursor=
func (h *AdsHandler) GetAds(c echo.Context) error {
	params := clients.GetAdsParams{
		Domain:       strings.TrimSpace(c.QueryParam("domain")),
		AdvertiserID: strings.TrimSpace(c.QueryParam("advertiser_id")),
		Topic:        c.QueryParam("topic"),
		Region:       c.QueryParam("region"),
		Cursor:       c.QueryParam("cursor"),
	}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		params.Limit = limit
	}

	page, err := h.adsService.GetAds(c.Request().Context(), params)
	if err != nil {
		if errors.Is(err, clients.ErrMissingIdentifier) || errors.Is(err, clients.ErrRegionRequired) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		h.components.Logger.Error("failed to retrieve ads", "error", err)
		return fail(c, http.StatusBadGateway, "failed to retrieve ads from the ad library")
	}

	return c.JSON(http.StatusOK, adsResponse{Success: true, AdsPage: page})
}

// GetAdDetail retrieves full detail for one ad
// GET /api/v1/ads/detail?url=
func (h *AdsHandler) GetAdDetail(c echo.Context) error {
	adURL := strings.TrimSpace(c.QueryParam("url"))
	if adURL == "" {
		return fail(c, http.StatusBadRequest, "url query parameter is required")
	}

	detail, err := h.adsService.GetAdDetails(c.Request().Context(), adURL)
	if err != nil {
		h.components.Logger.Error("failed to retrieve ad details", "ad_url", adURL, "error", err)
		return fail(c, http.StatusBadGateway, "failed to retrieve ad details from the ad library")
	}

	detail["success"] = true
	return c.JSON(http.StatusOK, detail)
}
