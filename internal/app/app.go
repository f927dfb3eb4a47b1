// Package app assembles the sync engine from configuration: it opens the
// configured blob backend and builds the stores, snapshot client and syncer
// on top of it. Both binaries share this wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/blob"
	"github.com/Clark-Hu/moviesync/internal/config"
	"github.com/Clark-Hu/moviesync/internal/metrics"
	"github.com/Clark-Hu/moviesync/internal/repository"
	"github.com/Clark-Hu/moviesync/internal/snapshot"
	"github.com/Clark-Hu/moviesync/internal/state"
	"github.com/Clark-Hu/moviesync/internal/store"
	"github.com/Clark-Hu/moviesync/internal/syncer"
)

// App holds the assembled components.
type App struct {
	Blobs   blob.Store
	Syncer  *syncer.Syncer
	Metrics *metrics.Metrics

	closers []func()
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// New opens the blob backend and builds a Syncer over it. m may be nil.
func New(ctx context.Context, cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	blobs, closeBlobs, err := OpenBlobStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Blobs: blobs, Metrics: m, closers: []func(){closeBlobs}}

	client, err := snapshot.NewHTTPClient(cfg.SnapshotURL, cfg.SnapshotTimeout(), logger.Named("snapshot"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init snapshot client: %w", err)
	}

	a.Syncer = syncer.New(
		state.NewCheckpointStore(blobs, cfg.SyncEpoch),
		state.NewCollectionStore(blobs),
		client,
		syncer.Options{Metrics: m, Logger: logger.Named("syncer")},
	)
	return a, nil
}

// OpenBlobStore connects to the backend selected by cfg.BlobBackend. The
// returned func releases it and is never nil.
func OpenBlobStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (blob.Store, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() {}

	var (
		st      blob.Store
		closeFn = noop
	)
	switch cfg.BlobBackend {
	case config.BackendMemory:
		st = blob.NewMemory()
	case config.BackendFile, "":
		fs, err := blob.NewFileStore(cfg.BlobDir)
		if err != nil {
			return nil, noop, fmt.Errorf("open file backend: %w", err)
		}
		st = fs
	case config.BackendPostgres:
		dbCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.DBConnTimeoutSecs)*time.Second)
		defer cancel()

		pg, err := store.New(dbCtx, cfg.DBURL, store.Options{
			MaxConns:               int32(cfg.DBMaxConns),
			MinConns:               int32(cfg.DBMinConns),
			MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
			MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
			ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
			StatementCacheCapacity: cfg.DBStatementCache,
			Logger:                 logger.Named("store"),
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect database: %w", err)
		}
		if err := pg.Migrate(dbCtx); err != nil {
			pg.Close()
			return nil, noop, fmt.Errorf("migrate database: %w", err)
		}
		st = repository.New(pg).Blobs
		closeFn = pg.Close
	case config.BackendS3:
		s3, err := blob.NewS3Store(blob.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("open s3 backend: %w", err)
		}
		st = s3
	case config.BackendRedis:
		rs, err := blob.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis backend: %w", err)
		}
		st = rs
		closeFn = func() {
			if err := rs.Close(); err != nil {
				logger.Warn("close redis backend", zap.Error(err))
			}
		}
	default:
		return nil, noop, fmt.Errorf("unsupported blob backend %q", cfg.BlobBackend)
	}

	logger.Info("blob backend ready",
		zap.String("backend", cfg.BlobBackend),
		zap.String("prefix", cfg.BlobPrefix))

	if cfg.BlobPrefix != "" {
		st = blob.WithPrefix(st, cfg.BlobPrefix)
	}
	return st, closeFn, nil
}
