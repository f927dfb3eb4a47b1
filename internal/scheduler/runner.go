// Package scheduler triggers synchronization runs and enforces that at most
// one run touches the stored state at a time, both within the process and,
// through a lock file, across processes sharing the same backend.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/syncer"
)

// ErrRunInProgress is returned when another run holds the lock.
var ErrRunInProgress = errors.New("scheduler: sync run already in progress")

// Synchronizer is the part of syncer.Syncer the runner drives.
type Synchronizer interface {
	Synchronize(ctx context.Context, now time.Time) (syncer.Report, error)
	SyncLatest(ctx context.Context) (syncer.Report, error)
}

// Runner serializes runs of a Synchronizer.
type Runner struct {
	target Synchronizer
	lock   *flock.Flock
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

// NewRunner returns a Runner. An empty lockPath disables the cross-process
// lock and only guards against overlapping runs in this process.
func NewRunner(s Synchronizer, lockPath string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{target: s, now: time.Now, logger: logger}
	if lockPath != "" {
		r.lock = flock.New(lockPath)
	}
	return r
}

// RunDaily performs one windowed synchronization relative to the current time.
func (r *Runner) RunDaily(ctx context.Context) (syncer.Report, error) {
	return r.RunDailyAt(ctx, r.now())
}

// RunDailyAt is RunDaily with an explicit reference time.
func (r *Runner) RunDailyAt(ctx context.Context, now time.Time) (syncer.Report, error) {
	var report syncer.Report
	err := r.exclusive(func() error {
		var err error
		report, err = r.target.Synchronize(ctx, now)
		return err
	})
	return report, err
}

// RunLatest merges the latest snapshot under the same lock.
func (r *Runner) RunLatest(ctx context.Context) (syncer.Report, error) {
	var report syncer.Report
	err := r.exclusive(func() error {
		var err error
		report, err = r.target.SyncLatest(ctx)
		return err
	})
	return report, err
}

func (r *Runner) exclusive(fn func() error) error {
	if !r.mu.TryLock() {
		return ErrRunInProgress
	}
	defer r.mu.Unlock()

	if r.lock != nil {
		locked, err := r.lock.TryLock()
		if err != nil {
			return fmt.Errorf("scheduler: acquire lock %s: %w", r.lock.Path(), err)
		}
		if !locked {
			return ErrRunInProgress
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				r.logger.Warn("scheduler: release lock", zap.String("path", r.lock.Path()), zap.Error(err))
			}
		}()
	}
	return fn()
}
