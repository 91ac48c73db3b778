package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mediasearch/internal/core"
)

// SQLiteStore backs the Limiter with a shared sqlite table, for
// deployments that run more than one instance of this service behind a
// load balancer and need a consistent view of each provider's quota.
type SQLiteStore struct {
	db *core.Database
}

// NewSQLiteStore creates the backing table if absent and returns a store
// bound to db.
func NewSQLiteStore(ctx context.Context, db *core.Database) (*SQLiteStore, error) {
	const createTable = `
	CREATE TABLE IF NOT EXISTS provider_usage_windows (
		provider TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		window_start INTEGER NOT NULL
	);`
	if _, err := db.ExecWithTimeout(ctx, createTable); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, provider string) (int, time.Time, bool, error) {
	row := s.db.QueryRowWithTimeout(ctx,
		`SELECT count, window_start FROM provider_usage_windows WHERE provider = ?`, provider)

	var count int
	var windowStartUnix int64
	if err := row.Scan(&count, &windowStartUnix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, err
	}
	return count, time.Unix(0, windowStartUnix), true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, provider string, count int, windowStart time.Time) error {
	_, err := s.db.ExecWithTimeout(ctx, `
		INSERT INTO provider_usage_windows (provider, count, window_start) VALUES (?, ?, ?)
		ON CONFLICT(provider) DO UPDATE SET count = excluded.count, window_start = excluded.window_start
	`, provider, count, windowStart.UnixNano())
	return err
}
