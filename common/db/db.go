package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/adlens/adscache/common/config"
	"github.com/adlens/adscache/common/logger"
	"github.com/adlens/adscache/common/models"
)

// DB wraps gorm with common operations
type DB struct {
	*gorm.DB
	log *logger.Logger
}

// New opens the cache index database, colocated with the media files.
// The sqlite file is created on first use and the schema migrated in place.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	// WAL keeps readers concurrent while upserts hold the single write lock.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", cfg.DatabasePath())

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := gdb.AutoMigrate(&models.MediaRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// Test connection
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected", "path", cfg.DatabasePath())

	return &DB{
		DB:  gdb,
		log: log,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.log.Info("closing database connection")
	if sqlDB, err := db.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
