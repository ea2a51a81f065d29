package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	// Pure-Go SQLite driver registered as "sqlite"
	_ "modernc.org/sqlite"
)

// DB wraps both GORM and sql.DB
type DB struct {
	*sql.DB
	GORM *gorm.DB
}

// Options tunes how a connection is opened.
type Options struct {
	LogLevel logger.LogLevel
}

// NewDB creates a new PostgreSQL connection using GORM
func NewDB(connStr string, opts Options) (*DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	gormDB, err := gorm.Open(postgres.Open(connStr), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("✅ Database connected (postgres)")
	return &DB{DB: sqlDB, GORM: gormDB}, nil
}

// NewSQLiteDB opens a SQLite database through the modernc driver.
// Used for local development and tests, e.g. "file:dev.db" or
// "file:test?mode=memory&cache=shared".
func NewSQLiteDB(dsn string, opts Options) (*DB, error) {
	gormDB, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	}), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions serialized.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &DB{DB: sqlDB, GORM: gormDB}, nil
}

// Open connects with the named driver: "postgres" or "sqlite".
func Open(driver, dsn string, opts Options) (*DB, error) {
	switch driver {
	case "postgres":
		return NewDB(dsn, opts)
	case "sqlite":
		if dsn == "" {
			dsn = "file:stock.db?_pragma=foreign_keys(1)"
		}
		db, err := NewSQLiteDB(dsn, opts)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dsn", dsn).Msg("✅ Database connected (sqlite)")
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// AutoMigrate creates or updates tables for the given models. Only used
// with SQLite; PostgreSQL schemas come from the SQL files in migrations/.
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.GORM.AutoMigrate(models...)
}

func (db *DB) Close() error {
	log.Info().Msg("🔌 Closing database connection...")
	return db.DB.Close()
}

func gormConfig(opts Options) *gorm.Config {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}
