package db

import (
	"errors"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogQueries      bool
}

// Open connects to the database named by dsn. postgres:// and postgresql://
// URLs use Postgres; sqlite: or file: prefixes use SQLite.
func Open(dsn string, opts Options) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("database url is not set")
	}
	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Warn
	if opts.LogQueries {
		logLevel = logger.Info
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	return conn, nil
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), nil
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), nil
	default:
		return nil, errors.New("unsupported database url scheme")
	}
}

// Migrate runs GORM auto-migrations for the core tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	return conn.AutoMigrate(
		&Game{},
		&Player{},
		&Submission{},
		&Vote{},
		&Reaction{},
		&Event{},
	)
}
