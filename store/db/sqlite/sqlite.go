// Package sqlite implements the store driver on an embedded SQLite
// database: a single kv table with lazy expiry.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/cadence/internal/profile"
	"github.com/hrygo/cadence/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the database at the profile's DSN and ensures the schema.
//
// Notes:
// - When using the `modernc.org/sqlite` driver, each pragma must be prefixed with `_pragma=`.
// - WAL journal mode avoids locking issues for this single-user workload.
func NewDB(p *profile.Profile) (store.Driver, error) {
	if p.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := sql.Open("sqlite", p.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", p.DSN)
	}

	// Single connection is optimal for SQLite with WAL; the engine is
	// invoked by one front-end process anyway.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := &DB{db: sqliteDB, profile: p}
	if err := driver.migrate(context.Background()); err != nil {
		_ = sqliteDB.Close()
		return nil, err
	}

	return driver, nil
}

func (d *DB) migrate(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_ts INTEGER
		)
	`)
	return errors.Wrap(err, "failed to create kv table")
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the value for key. Expired rows are deleted lazily and
// reported as absent.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expiresTs sql.NullInt64
	err := d.db.QueryRowContext(ctx, "SELECT value, expires_ts FROM kv WHERE key = ?", key).Scan(&value, &expiresTs)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get key %s", key)
	}

	if expiresTs.Valid && expiresTs.Int64 <= time.Now().UnixMilli() {
		if _, err := d.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			return "", false, errors.Wrapf(err, "failed to expire key %s", key)
		}
		return "", false, nil
	}

	return value, true, nil
}

// Set stores value under key. A positive ttl sets an absolute expiry.
func (d *DB) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresTs sql.NullInt64
	if ttl > 0 {
		expiresTs = sql.NullInt64{Int64: time.Now().Add(ttl).UnixMilli(), Valid: true}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_ts) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_ts = excluded.expires_ts
	`, key, value, expiresTs)
	return errors.Wrapf(err, "failed to set key %s", key)
}
