package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/handlers"
)

// RegisterAdsRoutes registers the ad library lookup routes
func RegisterAdsRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAdsHandler(c)

	ads := e.Group("/api/v1/ads")
	{
		ads.GET("", h.GetAds)             // GET /api/v1/ads?domain=nike.com
		ads.GET("/detail", h.GetAdDetail) // GET /api/v1/ads/detail?url=...
	}
}
