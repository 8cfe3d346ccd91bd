package bootstrap

import (
	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB        bool
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
}

// WithoutDB skips opening the cache index
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutTelemetry skips the pprof listener
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

func defaultOptions() *options {
	return &options{
		skipDB:        false,
		skipTelemetry: false,
	}
}
