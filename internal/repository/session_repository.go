package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/savings-portal/internal/session"
)

// PostgresSessionRepository keeps the durable session snapshot in the
// session_kv table.
type PostgresSessionRepository struct {
	pool   *pgxpool.Pool
	prefix string
}

var _ session.Storage = (*PostgresSessionRepository)(nil)

// NewPostgresSessionRepository returns a Postgres-backed session storage.
func NewPostgresSessionRepository(pool *pgxpool.Pool, prefix string) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool, prefix: prefix}
}

func (r *PostgresSessionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `
        SELECT value FROM session_kv WHERE key=$1`

	var value []byte
	if err := r.pool.QueryRow(ctx, query, r.prefix+key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (r *PostgresSessionRepository) Set(ctx context.Context, key string, value []byte) error {
	const query = `
        INSERT INTO session_kv (key, value)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`

	_, err := r.pool.Exec(ctx, query, r.prefix+key, value)
	return err
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, key string) error {
	const query = `
        DELETE FROM session_kv WHERE key=$1`

	_, err := r.pool.Exec(ctx, query, r.prefix+key)
	return err
}
