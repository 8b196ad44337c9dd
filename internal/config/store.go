package config

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/johestephan/dokemon-api/internal/model"
)

// Supported values for database.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// sqlDrivers maps a configured driver to the database/sql driver name.
var sqlDrivers = map[string]string{
	DriverSQLite:   "sqlite",
	DriverPostgres: "pgx",
	DriverMySQL:    "mysql",
}

// Store persists user accounts and instance settings. SQLite is the default
// backend; PostgreSQL and MySQL are accepted for shared deployments.
type Store struct {
	db      *sqlx.DB
	dialect string
}

// NewStore opens the SQLite store under dataDir. Pass empty string for in-memory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return Open(DriverSQLite, ":memory:?_journal_mode=WAL")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return Open(DriverSQLite, filepath.Join(dataDir, "users.db")+"?_journal_mode=WAL&_busy_timeout=5000")
}

// Open connects to the store using driver (sqlite, postgres or mysql) and
// creates the schema if needed.
func Open(driver, dsn string) (*Store, error) {
	name, ok := sqlDrivers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if driver == DriverMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Connect(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open user database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, dialect: driver}
	if err := s.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate user database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect reports the configured driver.
func (s *Store) Dialect() string {
	return s.dialect
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

const userColumns = `id, username, password_hash, salt, email, created_at,
	last_login, password_changed_at, active, is_admin`

// CreateUser inserts u. ID is populated after a successful insert.
// Returns ErrDuplicate when the username is taken.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			tx.Rebind("SELECT COUNT(*) FROM users WHERE username = ?"), u.Username); err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if n > 0 {
			return ErrDuplicate
		}

		const q = `INSERT INTO users
			(username, password_hash, salt, email, created_at, active, is_admin)
			VALUES
			(:username, :password_hash, :salt, :email, :created_at, :active, :is_admin)`
		if _, err := tx.NamedExecContext(ctx, q, u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return tx.GetContext(ctx, &u.ID, tx.Rebind("SELECT id FROM users WHERE username = ?"), u.Username)
	})
}

// GetUser returns the user with the given username.
func (s *Store) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	q := s.db.Rebind("SELECT " + userColumns + " FROM users WHERE username = ?")
	if err := s.db.GetContext(ctx, &u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns users in creation order, optionally only admins.
func (s *Store) ListUsers(ctx context.Context, adminOnly bool) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	var args []any
	if adminOnly {
		q += " WHERE is_admin = ?"
		args = append(args, true)
	}
	q += " ORDER BY created_at, id"

	users := []model.User{}
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CountAdmins returns the number of admin accounts, optionally only active ones.
func (s *Store) CountAdmins(ctx context.Context, activeOnly bool) (int, error) {
	return countAdmins(ctx, s.db, activeOnly)
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	return s.exec(ctx, "update last login",
		"UPDATE users SET last_login = ? WHERE username = ?", at.UTC(), username)
}

// UpdatePassword stores a new credential and stamps password_changed_at.
func (s *Store) UpdatePassword(ctx context.Context, username, hash, salt string, at time.Time) error {
	return s.exec(ctx, "update password",
		"UPDATE users SET password_hash = ?, salt = ?, password_changed_at = ? WHERE username = ?",
		hash, salt, at.UTC(), username)
}

// SetActive enables or disables an account.
func (s *Store) SetActive(ctx context.Context, username string, active bool) error {
	return s.exec(ctx, "set active",
		"UPDATE users SET active = ? WHERE username = ?", active, username)
}

// Promote grants admin rights to an active user. Inactive or unknown users
// yield ErrNotFound.
func (s *Store) Promote(ctx context.Context, username string) error {
	return s.exec(ctx, "promote user",
		"UPDATE users SET is_admin = ? WHERE username = ? AND active = ?", true, username, true)
}

// Demote revokes admin rights. It fails with ErrLastAdmin while at most one
// active admin exists.
func (s *Store) Demote(ctx context.Context, username string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		n, err := countAdmins(ctx, tx, true)
		if err != nil {
			return err
		}
		if n <= 1 {
			return ErrLastAdmin
		}
		return execAffecting(ctx, tx, "demote user",
			"UPDATE users SET is_admin = ? WHERE username = ?", false, username)
	})
}

// DeleteUser removes an account. Deleting the last active admin, or the only
// admin at all, fails with ErrLastAdmin.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var target struct {
			IsAdmin bool `db:"is_admin"`
			Active  bool `db:"active"`
		}
		err := tx.GetContext(ctx, &target, tx.Rebind("SELECT is_admin, active FROM users WHERE username = ?"), username)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if target.IsAdmin {
			n, err := countAdmins(ctx, tx, target.Active)
			if err != nil {
				return err
			}
			if n <= 1 {
				return ErrLastAdmin
			}
		}
		return execAffecting(ctx, tx, "delete user", "DELETE FROM users WHERE username = ?", username)
	})
}

// ---------------------------------------------------------------------------
// Revoked sessions
// ---------------------------------------------------------------------------

// RevokeSession records a logged-out session ID. Revoking the same ID twice
// is not an error.
func (s *Store) RevokeSession(ctx context.Context, id, username string, at time.Time) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n,
			tx.Rebind("SELECT COUNT(*) FROM revoked_sessions WHERE id = ?"), id); err != nil {
			return fmt.Errorf("check revoked session: %w", err)
		}
		if n > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind("INSERT INTO revoked_sessions (id, username, revoked_at) VALUES (?, ?, ?)"),
			id, username, at); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		return nil
	})
}

// SessionRevoked reports whether id was revoked.
func (s *Store) SessionRevoked(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n,
		s.db.Rebind("SELECT COUNT(*) FROM revoked_sessions WHERE id = ?"), id); err != nil {
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return n > 0, nil
}

// PruneRevokedSessions drops revocations recorded before cutoff and returns
// how many were removed.
func (s *Store) PruneRevokedSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM revoked_sessions WHERE revoked_at < ?"), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune revoked sessions: %w", err)
	}
	return res.RowsAffected()
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.GetContext(ctx, &v, s.db.Rebind("SELECT value FROM settings WHERE name = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return v, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM settings WHERE name = ?"), key); err != nil {
			return fmt.Errorf("set setting: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO settings (name, value) VALUES (?, ?)"), key, value); err != nil {
			return fmt.Errorf("set setting: %w", err)
		}
		return nil
	})
}

// SessionSecret returns the persisted signing secret, generating and saving
// a random one on first use.
func (s *Store) SessionSecret(ctx context.Context) (string, error) {
	v, err := s.GetSetting(ctx, "session_secret")
	if err == nil && v != "" {
		return v, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	v = hex.EncodeToString(b)
	if err := s.SetSetting(ctx, "session_secret", v); err != nil {
		return "", err
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Utility
// ---------------------------------------------------------------------------

// TableCounts returns the row count of every managed table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+t); err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out[t] = n
	}
	return out, nil
}

// mysqlDSN forces the options the store relies on: time columns scan into
// time.Time and UPDATE reports matched rather than changed rows.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	return cfg.FormatDSN(), nil
}

func (s *Store) exec(ctx context.Context, op, q string, args ...any) error {
	return execAffecting(ctx, s.db, op, q, args...)
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

type getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

// execAffecting runs q and returns ErrNotFound when no row was touched.
func execAffecting(ctx context.Context, db execer, op, q string, args ...any) error {
	result, err := db.ExecContext(ctx, db.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func countAdmins(ctx context.Context, db getter, activeOnly bool) (int, error) {
	q := "SELECT COUNT(*) FROM users WHERE is_admin = ?"
	args := []any{true}
	if activeOnly {
		q += " AND active = ?"
		args = append(args, true)
	}
	var n int
	if err := db.GetContext(ctx, &n, db.Rebind(q), args...); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
