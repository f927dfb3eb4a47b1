package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/moviesync/internal/store"
)

// Repository aggregates the Postgres-backed repositories.
type Repository struct {
	Blobs *BlobsRepository
}

// New constructs a Repository backed by the provided store. Health checks go
// through the store so its connection timeout applies.
func New(st *store.Store) *Repository {
	return &Repository{
		Blobs: &BlobsRepository{pool: st.Pool(), health: st.HealthCheck},
	}
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Blobs: &BlobsRepository{pool: pool, health: pool.Ping},
	}
}
