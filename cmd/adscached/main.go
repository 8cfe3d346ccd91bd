package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/adlens/adscache/cmd/adscached/container"
	"github.com/adlens/adscache/cmd/adscached/routes"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, cache index, telemetry)
	components, err := bootstrap.Setup(ctx, "adscached")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap adscached: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{
				"status":  "unhealthy",
				"service": "adscached",
				"error":   err.Error(),
			})
		}
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "adscached",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterAdsRoutes(e, serviceContainer)
	routes.RegisterMediaRoutes(e, serviceContainer)
	routes.RegisterCacheRoutes(e, serviceContainer)
}

// startServer starts the HTTP server on the configured port
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("adscached", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
