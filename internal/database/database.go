package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Connect opens and pings the database. driver is "postgres" or "sqlite".
func Connect(driver, dbURL string, logger *zap.Logger) (*sqlx.DB, error) {
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logger.Info("🔌 Connecting to database",
		zap.String("driver", driver),
		zap.String("url_prefix", dbURL[:min(30, len(dbURL))]+"..."))

	db, err := sqlx.Open(driver, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory sqlite databases shared and
	// serialises writers on file databases.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("❌ Database ping failed", zap.Error(err))
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("✅ Database connection successful")
	return db, nil
}

func Migrate(db *sqlx.DB, logger *zap.Logger) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS waiters (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL CHECK(role IN ('waiter', 'manager')),
			joined_at TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			token TEXT PRIMARY KEY,
			waiter_id TEXT NOT NULL,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android', 'web')),
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			FOREIGN KEY (waiter_id) REFERENCES waiters(id) ON DELETE CASCADE
		)`,

		// Small documents such as the served-order history live here as JSON.
		`CREATE TABLE IF NOT EXISTS kv_store (
			kv_key TEXT PRIMARY KEY,
			kv_value TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_waiters_email ON waiters(email)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_waiter_id ON fcm_tokens(waiter_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	logger.Info("✓ Database migrations completed", zap.Int("statements", len(migrations)))
	return nil
}

// IsUniqueViolation reports whether err comes from a unique constraint on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
