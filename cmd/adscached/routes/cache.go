package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/handlers"
)

// RegisterCacheRoutes registers the cache maintenance routes
func RegisterCacheRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCacheHandler(c)

	cache := e.Group("/api/v1/cache")
	{
		cache.GET("/stats", h.GetStats)   // GET /api/v1/cache/stats
		cache.GET("/search", h.Search)    // GET /api/v1/cache/search?brand_name=Nike
		cache.POST("/cleanup", h.Cleanup) // POST /api/v1/cache/cleanup
	}
}
