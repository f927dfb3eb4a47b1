// Package state persists the two pieces of sync state, the checkpoint day and
// the movie collection, as independent blobs.
//
// Neither store locks. Callers must ensure at most one synchronization run
// uses a given checkpoint/collection pair at a time.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/Clark-Hu/moviesync/internal/blob"
	"github.com/Clark-Hu/moviesync/internal/domain"
)

// Default blob keys.
const (
	CollectionKey = "movies.json"
	CheckpointKey = "last_synced.txt"
)

// CheckpointStore reads and writes the last fully processed day.
type CheckpointStore struct {
	blobs blob.Store
	key   string
	epoch time.Time
}

// NewCheckpointStore returns a store that initializes the checkpoint to the
// day before epoch on first access.
func NewCheckpointStore(blobs blob.Store, epoch time.Time) *CheckpointStore {
	return &CheckpointStore{blobs: blobs, key: CheckpointKey, epoch: domain.Day(epoch)}
}

// Read returns the persisted checkpoint, initializing it when absent.
func (s *CheckpointStore) Read(ctx context.Context) (time.Time, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotExist) {
		initial := domain.AddDays(s.epoch, -1)
		if err := s.Write(ctx, initial); err != nil {
			return time.Time{}, err
		}
		return initial, nil
	}
	if err != nil {
		return time.Time{}, &domain.StoreError{Op: "get", Key: s.key, Err: err}
	}

	day, err := domain.ParseDay(string(data))
	if err != nil {
		return time.Time{}, &domain.ValidationError{Source: s.key, Index: -1, Reason: "checkpoint must be YYYY-MM-DD", Err: err}
	}
	return day, nil
}

// Write persists day as YYYY-MM-DD.
func (s *CheckpointStore) Write(ctx context.Context, day time.Time) error {
	if err := s.blobs.Put(ctx, s.key, []byte(domain.FormatDay(day))); err != nil {
		return &domain.StoreError{Op: "put", Key: s.key, Err: err}
	}
	return nil
}

// CollectionStore reads and writes the full deduplicated collection.
type CollectionStore struct {
	blobs blob.Store
	key   string
}

// NewCollectionStore returns a store over blobs.
func NewCollectionStore(blobs blob.Store) *CollectionStore {
	return &CollectionStore{blobs: blobs, key: CollectionKey}
}

// Read returns the persisted collection, initializing it to empty when absent.
func (s *CollectionStore) Read(ctx context.Context) ([]domain.Movie, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotExist) {
		empty := []domain.Movie{}
		if err := s.Write(ctx, empty); err != nil {
			return nil, err
		}
		return empty, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Key: s.key, Err: err}
	}

	movies, err := domain.ParseMovies(data)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			verr.Source = s.key
			return nil, verr
		}
		return nil, &domain.ValidationError{Source: s.key, Index: -1, Reason: "collection must be a JSON array", Err: err}
	}
	return movies, nil
}

// Write replaces the persisted collection with movies in a single Put.
func (s *CollectionStore) Write(ctx context.Context, movies []domain.Movie) error {
	data, err := domain.EncodeMovies(movies)
	if err != nil {
		return &domain.ValidationError{Source: s.key, Index: -1, Reason: "encode collection", Err: err}
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return &domain.StoreError{Op: "put", Key: s.key, Err: err}
	}
	return nil
}
