package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"userapi/src/models"
)

// Database owns the connection pool for the lifetime of the process.
// Build it once at startup and Close it on shutdown.
type Database struct {
	db      *sqlx.DB
	driver  string
	logger  *slog.Logger
	pingTTL time.Duration
}

// OpenDatabase opens the pool described by cfg. It does not contact the
// server; use TestConnection for that.
func OpenDatabase(cfg DatabaseConfig, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driverName := cfg.Driver
	if driverName == DriverPostgres {
		driverName = "pgx"
	}

	db, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows a single writer, and each :memory: connection is its own database.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Database{
		db:      db,
		driver:  cfg.Driver,
		logger:  logger,
		pingTTL: 5 * time.Second,
	}, nil
}

// DB exposes the pool for query builders.
func (d *Database) DB() *sqlx.DB { return d.db }

// Driver returns the configured driver ("postgres" or "sqlite3").
func (d *Database) Driver() string { return d.driver }

// Placeholder returns the bind variable style used by the driver.
func (d *Database) Placeholder() sq.PlaceholderFormat {
	if d.driver == DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// TestConnection acquires a pooled connection, pings it and releases it.
// Failures are logged and reported as false, never returned.
func (d *Database) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, d.pingTTL)
	defer cancel()

	conn, err := d.db.Connx(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "database connection failed", slog.String("error", err.Error()))
		return false
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		d.logger.ErrorContext(ctx, "database connection failed", slog.String("error", err.Error()))
		return false
	}
	d.logger.DebugContext(ctx, "database connection successful", slog.String("driver", d.driver))
	return true
}

// EnsureSchema creates the users table when it does not exist yet.
// It is a bootstrap for local development and tests; production schema
// changes are applied outside the API.
func (d *Database) EnsureSchema(ctx context.Context) error {
	ddl := models.UsersTable.PostgresDDL()
	if d.driver == DriverSQLite {
		ddl = models.UsersTable.SQLiteDDL()
	}
	if _, err := d.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

// Close drains and closes the pool.
func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		d.logger.Error("error closing database connection", slog.String("error", err.Error()))
		return err
	}
	d.logger.Info("database connection closed")
	return nil
}
