package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const subscriberSchema = `
	CREATE TABLE IF NOT EXISTS subscribers (
		id         SERIAL PRIMARY KEY,
		email      VARCHAR(255) UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// SubscriberRepository stores subscribers one row per address.
// Emails are expected to be normalized by the caller.
type SubscriberRepository struct {
	pool *pgxpool.Pool
}

// EnsureSchema creates the subscribers table if it does not exist.
func (r *SubscriberRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, subscriberSchema); err != nil {
		return fmt.Errorf("failed to create subscribers table: %w", err)
	}
	return nil
}

// Add inserts email unless it is already present.
// Returns whether a row was inserted and the resulting subscriber count.
func (r *SubscriberRepository) Add(ctx context.Context, email string) (bool, int, error) {
	// The outer SELECT does not see rows written by the CTE, hence the sum.
	query := `
		WITH ins AS (
			INSERT INTO subscribers (email) VALUES ($1)
			ON CONFLICT (email) DO NOTHING
			RETURNING 1
		)
		SELECT (SELECT COUNT(*) FROM ins), (SELECT COUNT(*) FROM subscribers) + (SELECT COUNT(*) FROM ins)
	`

	var added, total int
	if err := r.pool.QueryRow(ctx, query, email).Scan(&added, &total); err != nil {
		return false, 0, fmt.Errorf("failed to add subscriber: %w", err)
	}
	return added > 0, total, nil
}

// Remove deletes email if present.
// Returns whether a row was deleted and the resulting subscriber count.
func (r *SubscriberRepository) Remove(ctx context.Context, email string) (bool, int, error) {
	query := `
		WITH del AS (
			DELETE FROM subscribers WHERE email = $1
			RETURNING 1
		)
		SELECT (SELECT COUNT(*) FROM del), (SELECT COUNT(*) FROM subscribers) - (SELECT COUNT(*) FROM del)
	`

	var removed, total int
	if err := r.pool.QueryRow(ctx, query, email).Scan(&removed, &total); err != nil {
		return false, 0, fmt.Errorf("failed to remove subscriber: %w", err)
	}
	return removed > 0, total, nil
}

// List returns all subscriber emails, newest first.
func (r *SubscriberRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT email FROM subscribers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return emails, nil
}

// Import bulk-inserts emails, skipping ones already present.
// Returns how many rows were inserted.
func (r *SubscriberRepository) Import(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO subscribers (email)
		SELECT DISTINCT e FROM unnest($1::text[]) AS e
		ON CONFLICT (email) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, pq.Array(emails))
	if err != nil {
		return 0, fmt.Errorf("failed to import subscribers: %w", err)
	}
	return result.RowsAffected(), nil
}
