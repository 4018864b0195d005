package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const kvSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		expires_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_kv_entries_expires_at ON kv_entries (expires_at) WHERE expires_at IS NOT NULL;
`

// Postgres is a Store backed by a kv_entries table.
// The pool is owned by the caller; Close does not close it.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres creates the kv_entries table if needed and purges expired rows.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, ErrNotConfigured
	}

	if _, err := pool.Exec(ctx, kvSchema); err != nil {
		return nil, fmt.Errorf("failed to create kv schema: %w", err)
	}

	p := &Postgres{pool: pool, now: time.Now}
	if _, err := p.PurgeExpired(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := p.now().Add(ttl)
	return &at
}

func (p *Postgres) live(expiresAt *time.Time) bool {
	return expiresAt == nil || p.now().Before(*expiresAt)
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value, expires_at FROM kv_entries WHERE key = $1`

	var value []byte
	var expiresAt *time.Time
	err := p.pool.QueryRow(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if !p.live(expiresAt) {
		return nil, ErrNotFound
	}
	return value, nil
}

// Set implements Store.
func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`

	if _, err := p.pool.Exec(ctx, query, key, value, p.expiry(ttl)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Take implements Store with DELETE ... RETURNING.
func (p *Postgres) Take(ctx context.Context, key string) ([]byte, error) {
	query := `DELETE FROM kv_entries WHERE key = $1 RETURNING value, expires_at`

	var value []byte
	var expiresAt *time.Time
	err := p.pool.QueryRow(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take %s: %w", key, err)
	}
	if !p.live(expiresAt) {
		return nil, ErrNotFound
	}
	return value, nil
}

// Update implements Store inside a transaction serialized per key by an
// advisory lock, so two writers never read the same version.
func (p *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}

	var current []byte
	var expiresAt *time.Time
	err = tx.QueryRow(ctx, `SELECT value, expires_at FROM kv_entries WHERE key = $1`, key).Scan(&current, &expiresAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = nil
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", key, err)
	case !p.live(expiresAt):
		current, expiresAt = nil, nil
	}

	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	query := `
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, query, key, next, expiresAt); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed and returns how many were removed.
func (p *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to the repository that created it.
func (p *Postgres) Close() error {
	return nil
}
