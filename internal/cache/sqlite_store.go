package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mediasearch/internal/core"
)

// SQLiteStore backs Cache with a shared sqlite database, the "shared kv
// store for horizontally-scaled deployments" the spec allows as an
// alternative to a process-local map. Expiry is enforced both on read (a
// row past its expires_at is treated as a miss) and lazily reclaimed.
type SQLiteStore struct {
	db     *core.Database
	logger *core.Logger
	now    func() time.Time
}

// NewSQLiteStore creates the backing table if absent and returns a store
// bound to db.
func NewSQLiteStore(ctx context.Context, db *core.Database, logger *core.Logger) (*SQLiteStore, error) {
	const createTable = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);`
	if _, err := db.ExecWithTimeout(ctx, createTable); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, logger: logger.ForFeature("cache-sqlite"), now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowWithTimeout(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key)

	var value []byte
	var expiresAtUnix int64
	if err := row.Scan(&value, &expiresAtUnix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if s.now().After(time.Unix(0, expiresAtUnix)) {
		_, _ = s.db.ExecWithTimeout(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixNano()
	_, err := s.db.ExecWithTimeout(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	return err
}
