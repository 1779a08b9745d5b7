package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// DB is a journal database together with the driver it was opened with.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to dsn and runs migrations. postgres:// and postgresql:// URLs use
// PostgreSQL; anything else is a SQLite path (an optional sqlite:// prefix is stripped).
func Open(ctx context.Context, dsn string) (*DB, error) {
	driver, source := DriverSQLite, strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source = DriverPostgres, dsn
	}

	sqlDB, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(defaultMaxOpenConns)
		sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
		sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	} else {
		// One writer; also keeps ":memory:" on a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, Driver: driver}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("pragma busy_timeout: %w", err)
		}
	}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory SQLite journal for testing.
func OpenMemory(ctx context.Context) (*DB, error) {
	return Open(ctx, ":memory:")
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS reminder_journal (
		id             VARCHAR(36) PRIMARY KEY,
		event_type     VARCHAR(32) NOT NULL,
		guild_id       VARCHAR(32) NOT NULL,
		channel_id     VARCHAR(32) NOT NULL,
		target_user_id VARCHAR(32) NOT NULL,
		message_id     VARCHAR(32) NOT NULL,
		send_after_ms  BIGINT NOT NULL,
		sticky         BOOLEAN NOT NULL,
		detail         TEXT NOT NULL,
		created_at_ms  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS reminder_journal_created_idx ON reminder_journal (created_at_ms)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites '?' placeholders to $1, $2, ... for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
