package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/handlers"
)

// RegisterMediaRoutes registers the media analysis routes
func RegisterMediaRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewMediaHandler(c)

	media := e.Group("/api/v1/media")
	{
		media.POST("/image/analyze", h.AnalyzeImage) // POST /api/v1/media/image/analyze
		media.POST("/video/analyze", h.AnalyzeVideo) // POST /api/v1/media/video/analyze
		media.POST("/analysis", h.AttachAnalysis)    // POST /api/v1/media/analysis
	}
}
