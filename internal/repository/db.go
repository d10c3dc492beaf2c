package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yourday/internal/model"
	applog "yourday/internal/logger"
)

// NewDB opens the store named by dsn and runs migrations.
// postgres:// and postgresql:// DSNs go to PostgreSQL through lib/pq, anything
// else is treated as a SQLite file or memory DSN.
func NewDB(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "yourday.db"
	}

	dbLogger := logger.New(
		applog.Std(log, "gorm"),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	cfg := &gorm.Config{
		Logger: dbLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(dsn) {
		db, err = gorm.Open(postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), cfg)
	} else {
		if err := prepareSQLiteFile(dsn); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err == nil {
			// SQLite has a single writer; one connection keeps transactions from
			// failing with SQLITE_BUSY under concurrent requests.
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteFile returns the file a SQLite DSN points at, or false for
// in-memory stores.
func sqliteFile(dsn string) (string, bool) {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return "", false
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	return path, path != ""
}

func prepareSQLiteFile(dsn string) error {
	path, ok := sqliteFile(dsn)
	if !ok {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir %q: %w", dir, err)
	}
	return nil
}
