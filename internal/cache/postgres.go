package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/remotelyhq/jobradar/shared/postgresql"
)

// PostgresStore keeps the slow cache tier in a cache_entries table, for
// deployments that already run Postgres and do not want Redis.
type PostgresStore struct {
	client *postgresql.Client
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

// NewPostgresStore ensures the cache table exists and returns the store.
func NewPostgresStore(ctx context.Context, client *postgresql.Client) (*PostgresStore, error) {
	if err := client.ExecContext(ctx, createCacheTable); err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}
	return &PostgresStore{client: client}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, error) {
	var entry Entry
	err := s.client.GetContext(ctx, &entry,
		`SELECT payload, created_at, expires_at FROM cache_entries WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("postgres get: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, entry Entry) error {
	err := s.client.ExecContext(ctx,
		`INSERT INTO cache_entries (key, payload, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		key, []byte(entry.Value), entry.CreatedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := s.client.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if err := s.client.ExecContext(ctx, `TRUNCATE cache_entries`); err != nil {
		return fmt.Errorf("postgres clear: %w", err)
	}
	return nil
}

// PruneExpired removes entries whose lifetime already passed. The
// refresh service runs this after every refresh cycle.
func (s *PostgresStore) PruneExpired(ctx context.Context) error {
	if err := s.client.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at < NOW()`); err != nil {
		return fmt.Errorf("postgres prune: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}
