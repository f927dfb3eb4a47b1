package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviesync/internal/blob"
)

var _ blob.Store = (*BlobsRepository)(nil)

// BlobsRepository stores blobs as rows of the blobs table, one row per key.
type BlobsRepository struct {
	pool   *pgxpool.Pool
	health func(ctx context.Context) error
}

// Get returns the blob stored under key, or blob.ErrNotExist.
func (r *BlobsRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT data FROM blobs WHERE key = $1`

	var data []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, blob.ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

// Put inserts or replaces the blob in a single statement.
func (r *BlobsRepository) Put(ctx context.Context, key string, data []byte) error {
	const query = `
        INSERT INTO blobs (key, data)
        VALUES ($1, $2)
        ON CONFLICT (key)
        DO UPDATE SET data = EXCLUDED.data, updated_at = now()
    `
	if data == nil {
		data = []byte{}
	}
	_, err := r.pool.Exec(ctx, query, key, data)
	return err
}

// HealthCheck verifies the database is reachable.
func (r *BlobsRepository) HealthCheck(ctx context.Context) error {
	return r.health(ctx)
}
