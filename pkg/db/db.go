// Package db opens the gorm connection backing the recommendation store and
// serializes schema migration across replicas.
package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
)

var (
	// ErrUnsupportedType is returned for an unknown database type.
	ErrUnsupportedType = errors.New("unsupported database type")
	// ErrMissingDSN is returned when no connection string is configured.
	ErrMissingDSN = errors.New("database DSN is required")
)

// Dialector returns the gorm dialector for cfg without connecting.
func Dialector(cfg *Config) (gorm.Dialector, error) {
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}
	switch strings.ToLower(cfg.Type) {
	case "", TypeSQLite, "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	case TypePostgres, "postgresql":
		return postgres.Open(cfg.DSN), nil
	case TypeMySQL, "mariadb":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected sqlite, postgres or mysql)", ErrUnsupportedType, cfg.Type)
	}
}

// Open connects to the configured database and applies pool settings.
func Open(cfg *Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if dialector.Name() == TypeSQLite {
		// SQLite admits a single writer, and each pooled connection to
		// :memory: would see its own database.
		sqlDB.SetMaxOpenConns(1)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return gdb, nil
}

func logLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
