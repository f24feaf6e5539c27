package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Path string
	// Models are auto-migrated right after opening.
	Models []any
}

// Open opens (creating if needed) the SQLite database at cfg.Path. SQLite has a single
// writer, so the pool is capped at one connection, which also keeps ":memory:"
// databases shared across queries.
func Open(cfg *Config) (*gorm.DB, error) {
	if !strings.Contains(cfg.Path, ":memory:") {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=busy_timeout(5000)", cfg.Path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)

	if len(cfg.Models) > 0 {
		if err := db.AutoMigrate(cfg.Models...); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	return db, nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
