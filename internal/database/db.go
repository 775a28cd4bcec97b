package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/justsurfingit/job-market-sync/internal/models"
)

// IsPostgres reports whether dsn targets Postgres rather than a SQLite file.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.HasPrefix(dsn, "host=")
}

// Open connects to Postgres or SQLite depending on dsn. The returned handle
// is passed explicitly to every component; nothing is kept at package level.
func Open(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !IsPostgres(dsn) {
		// SQLite serializes writers; a single connection also keeps
		// in-memory databases alive across calls.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logger.Info("database connection established",
		zap.Bool("postgres", IsPostgres(dsn)))
	return db, nil
}

// Migrate creates or updates both posting tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.JobPosting{}, &models.HistoricalJobPosting{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	if path == "" || strings.HasPrefix(path, "file:") || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}
