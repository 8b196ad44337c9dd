package config

import (
	"fmt"
	"strings"
)

// tables lists every table the store manages.
var tables = []string{"users", "settings", "revoked_sessions"}

// schemas holds the DDL per dialect, applied in order.
var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL,
			email TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME,
			password_changed_at DATETIME,
			active INTEGER NOT NULL DEFAULT 1,
			is_admin INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_admin ON users(is_admin)`,
		`CREATE TABLE IF NOT EXISTS revoked_sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			revoked_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revoked_sessions_at ON revoked_sessions(revoked_at)`,
	},
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			salt TEXT NOT NULL,
			email TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			last_login TIMESTAMPTZ,
			password_changed_at TIMESTAMPTZ,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_is_admin ON users(is_admin)`,
		`CREATE TABLE IF NOT EXISTS revoked_sessions (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			revoked_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_revoked_sessions_at ON revoked_sessions(revoked_at)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(128) NOT NULL,
			salt VARCHAR(64) NOT NULL,
			email VARCHAR(255),
			created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			last_login DATETIME(6),
			password_changed_at DATETIME(6),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name VARCHAR(255) PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX idx_users_is_admin ON users(is_admin)`,
		`CREATE TABLE IF NOT EXISTS revoked_sessions (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			revoked_at DATETIME(6) NOT NULL
		)`,
		`CREATE INDEX idx_revoked_sessions_at ON revoked_sessions(revoked_at)`,
	},
}

// InitSchema creates the tables and indexes for the store's dialect. It is
// safe to call repeatedly.
func (s *Store) InitSchema() error {
	for _, m := range schemas[s.dialect] {
		if _, err := s.db.Exec(m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; SQLite ALTER TABLE
			// ADD COLUMN fails on rerun. Both are no-ops here.
			if msg := err.Error(); strings.Contains(msg, "duplicate column") ||
				strings.Contains(msg, "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
