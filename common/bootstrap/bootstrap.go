package bootstrap

import (
	"context"
	"fmt"

	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/db"
	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/metrics"
	"github.com/adlens/adscache/common/telemetry"
)

// Setup initializes all service components
// This is the main entry point for all services
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	host := metrics.GetSystemInfo()
	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
		"host", host.Hostname,
		"os", host.OSVersion,
		"cpus", host.CPULogical,
		"memory_mb", host.TotalMemoryMB,
		"in_container", host.InContainer,
	)

	// 3. Initialize the cache index database (if not skipped)
	if !options.skipDB {
		components.Logger.Info("opening cache index",
			"path", components.Config.DatabasePath(),
		)
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache index: %w", err)
		}

		// Register cleanup
		components.addCleanup(func() error {
			components.DB.Close()
			return nil
		})
	}

	// 4. Initialize telemetry. The component always exists so services
	// can record durations; the pprof listener is opt-in.
	components.Telemetry = telemetry.New(
		components.Config.Telemetry.PprofPort,
		components.Logger,
	)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"pprof", !options.skipTelemetry && components.Config.Telemetry.EnablePprof,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
// Useful for services that can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
