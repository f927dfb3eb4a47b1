// Package syncer advances the movie collection one daily snapshot at a time.
//
// A run reads the checkpoint and the collection once, computes the pending
// window and, for each day in order, fetches the snapshot, merges new movies,
// writes the collection if it grew and then writes the checkpoint. An error
// aborts the run without touching the current day; earlier days stay
// committed, so re-running is always safe.
//
// Syncer does not serialize runs. Callers must make sure at most one run
// executes against a checkpoint/collection pair at a time (see the scheduler
// package).
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/domain"
	"github.com/Clark-Hu/moviesync/internal/metrics"
	"github.com/Clark-Hu/moviesync/internal/snapshot"
)

// Run kinds, used in reports and metrics.
const (
	KindDaily  = "daily"
	KindLatest = "latest"
)

// CheckpointStore persists the last fully processed day.
type CheckpointStore interface {
	Read(ctx context.Context) (time.Time, error)
	Write(ctx context.Context, day time.Time) error
}

// CollectionStore persists the deduplicated movie collection.
type CollectionStore interface {
	Read(ctx context.Context) ([]domain.Movie, error)
	Write(ctx context.Context, movies []domain.Movie) error
}

// DayReport describes what happened to one day of the window.
type DayReport struct {
	Day       time.Time
	Status    snapshot.Status
	Fetched   int
	Added     int
	Committed bool
}

// Report summarizes a run. It is returned even when the run fails, filled up
// to the point of failure.
type Report struct {
	RunID          string
	Kind           string
	Start          time.Time
	Checkpoint     time.Time
	Window         []time.Time
	Days           []DayReport
	Added          int
	CollectionSize int
	Stalled        bool
}

// Options carries the optional collaborators of a Syncer.
type Options struct {
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Syncer drives synchronization runs.
type Syncer struct {
	checkpoints CheckpointStore
	collection  CollectionStore
	fetcher     snapshot.Fetcher
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// New wires a Syncer.
func New(checkpoints CheckpointStore, collection CollectionStore, fetcher snapshot.Fetcher, opts Options) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		checkpoints: checkpoints,
		collection:  collection,
		fetcher:     fetcher,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// ReadCollection returns the last persisted collection. It never triggers a
// synchronization.
func (s *Syncer) ReadCollection(ctx context.Context) ([]domain.Movie, error) {
	return s.collection.Read(ctx)
}

// Checkpoint returns the last persisted checkpoint.
func (s *Syncer) Checkpoint(ctx context.Context) (time.Time, error) {
	return s.checkpoints.Read(ctx)
}

// Synchronize processes the pending window relative to now.
//
// A day whose snapshot is unavailable (non-404 failure status) is skipped
// without error. From that day on the run keeps fetching and merging but
// stops writing the checkpoint, so the unavailable day is retried next run.
func (s *Syncer) Synchronize(ctx context.Context, now time.Time) (Report, error) {
	report := Report{RunID: uuid.NewString(), Kind: KindDaily}
	logger := s.logger.With(zap.String("run_id", report.RunID), zap.String("kind", KindDaily))

	started := time.Now()
	err := s.synchronize(ctx, now, logger, &report)
	s.observe(KindDaily, &report, err, time.Since(started))
	if err != nil {
		logger.Error("sync run failed", zap.Error(err),
			zap.String("checkpoint", domain.FormatDay(report.Checkpoint)))
		return report, err
	}

	logger.Info("sync run finished",
		zap.String("from", domain.FormatDay(report.Start)),
		zap.String("checkpoint", domain.FormatDay(report.Checkpoint)),
		zap.Int("days", len(report.Window)),
		zap.Int("added", report.Added),
		zap.Int("collection_size", report.CollectionSize),
		zap.Bool("stalled", report.Stalled))
	return report, nil
}

func (s *Syncer) synchronize(ctx context.Context, now time.Time, logger *zap.Logger, report *Report) error {
	checkpoint, err := s.checkpoints.Read(ctx)
	if err != nil {
		return fmt.Errorf("syncer: read checkpoint: %w", err)
	}
	report.Start, report.Checkpoint = checkpoint, checkpoint

	movies, err := s.collection.Read(ctx)
	if err != nil {
		return fmt.Errorf("syncer: read collection: %w", err)
	}
	report.CollectionSize = len(movies)

	window, err := Window(checkpoint, now)
	if err != nil {
		return fmt.Errorf("syncer: compute window: %w", err)
	}
	report.Window = window
	if len(window) == 0 {
		logger.Debug("checkpoint is current, nothing to fetch")
		return nil
	}

	for _, day := range window {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("syncer: stopped before %s: %w", domain.FormatDay(day), err)
		}
		dayLogger := logger.With(zap.String("day", domain.FormatDay(day)))

		fetchStarted := time.Now()
		res, err := s.fetcher.FetchDay(ctx, day)
		s.metrics.ObserveFetch(time.Since(fetchStarted))
		if err != nil {
			return fmt.Errorf("syncer: fetch %s: %w", domain.FormatDay(day), err)
		}
		s.metrics.ObserveDay(res.Status.String())

		dr := DayReport{Day: day, Status: res.Status, Fetched: len(res.Movies)}
		if !res.Status.Processed() {
			report.Stalled = true
			report.Days = append(report.Days, dr)
			dayLogger.Warn("snapshot unavailable, holding checkpoint", zap.Int("status", res.StatusCode))
			continue
		}

		merged := MergeAll(movies, res.Movies)
		if len(merged) > len(movies) {
			if err := s.collection.Write(ctx, merged); err != nil {
				return fmt.Errorf("syncer: write collection for %s: %w", domain.FormatDay(day), err)
			}
			dr.Added = len(merged) - len(movies)
			report.Added += dr.Added
			report.CollectionSize = len(merged)
			movies = merged
		}

		if !report.Stalled {
			if err := s.checkpoints.Write(ctx, day); err != nil {
				return fmt.Errorf("syncer: write checkpoint %s: %w", domain.FormatDay(day), err)
			}
			report.Checkpoint = day
			dr.Committed = true
		}
		report.Days = append(report.Days, dr)

		dayLogger.Debug("day processed",
			zap.Stringer("status", res.Status),
			zap.Int("fetched", dr.Fetched),
			zap.Int("added", dr.Added),
			zap.Bool("committed", dr.Committed))
	}
	return nil
}

// SyncLatest merges the most recent snapshot into the collection. The
// checkpoint is neither read nor written.
func (s *Syncer) SyncLatest(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString(), Kind: KindLatest}
	logger := s.logger.With(zap.String("run_id", report.RunID), zap.String("kind", KindLatest))

	started := time.Now()
	err := s.syncLatest(ctx, logger, &report)
	s.observe(KindLatest, &report, err, time.Since(started))
	if err != nil {
		logger.Error("latest sync failed", zap.Error(err))
		return report, err
	}
	logger.Info("latest sync finished",
		zap.Int("added", report.Added),
		zap.Int("collection_size", report.CollectionSize))
	return report, nil
}

func (s *Syncer) syncLatest(ctx context.Context, logger *zap.Logger, report *Report) error {
	movies, err := s.collection.Read(ctx)
	if err != nil {
		return fmt.Errorf("syncer: read collection: %w", err)
	}
	report.CollectionSize = len(movies)

	fetchStarted := time.Now()
	res, err := s.fetcher.FetchLatest(ctx)
	s.metrics.ObserveFetch(time.Since(fetchStarted))
	if err != nil {
		return fmt.Errorf("syncer: fetch latest: %w", err)
	}
	if !res.Status.Processed() {
		report.Stalled = true
		logger.Warn("latest snapshot unavailable", zap.Int("status", res.StatusCode))
		return nil
	}

	merged := MergeAll(movies, res.Movies)
	if len(merged) == len(movies) {
		return nil
	}
	if err := s.collection.Write(ctx, merged); err != nil {
		return fmt.Errorf("syncer: write collection: %w", err)
	}
	report.Added = len(merged) - len(movies)
	report.CollectionSize = len(merged)
	return nil
}

func (s *Syncer) observe(kind string, report *Report, err error, elapsed time.Duration) {
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case report.Stalled:
		result = "stalled"
	}
	s.metrics.ObserveRun(kind, result, elapsed)
	s.metrics.AddMovies(report.Added)
	if err == nil {
		s.metrics.SetCollectionSize(report.CollectionSize)
		if kind == KindDaily {
			s.metrics.SetCheckpoint(report.Checkpoint)
		}
	}
}
