// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping for SQLite (pure
// Go driver) and PostgreSQL, plus schema migrations.
package repo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-failurelog-api/internal/config"
	"github.com/tbourn/go-failurelog-api/internal/domain"
)

// Open connects to the configured driver, verifies the connection within
// ServerSelectionTimeout and, when traced is true, installs the GORM
// OpenTelemetry plugin.
func Open(ctx context.Context, cfg config.DatabaseConfig, traced bool) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = OpenSQLite(cfg.URL)
	case config.DriverPostgres:
		db, err = OpenPostgres(cfg.URL, cfg.ConnectTimeout)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := Ping(ctx, db, cfg.ServerSelectionTimeout); err != nil {
		closeQuietly(db)
		return nil, err
	}

	if traced {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			closeQuietly(db)
			return nil, fmt.Errorf("gorm tracing plugin: %w", err)
		}
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." && !strings.HasPrefix(path, "file:") {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	tunePool(db)
	return db, nil
}

// OpenPostgres opens a PostgreSQL connection through pgx. connectTimeout is
// added to the DSN unless it already sets connect_timeout.
func OpenPostgres(dsn string, connectTimeout time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(withConnectTimeout(dsn, connectTimeout)), gormConfig())
	if err != nil {
		return nil, err
	}
	tunePool(db)
	return db, nil
}

// Ping checks connectivity, bounded by timeout.
func Ping(ctx context.Context, db *gorm.DB, timeout time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("database not reachable within %s: %w", timeout, err)
		}
		return err
	}
	return nil
}

// AutoMigrate creates or updates the schema for all persisted models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.FailureLog{},
		&domain.Product{},
	)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func tunePool(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// withConnectTimeout appends connect_timeout (whole seconds, min 1) to a
// URL or key/value DSN.
func withConnectTimeout(dsn string, d time.Duration) string {
	if d <= 0 || strings.Contains(dsn, "connect_timeout") {
		return dsn
	}
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		q := u.Query()
		q.Set("connect_timeout", strconv.Itoa(secs))
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(dsn) + " connect_timeout=" + strconv.Itoa(secs)
}
