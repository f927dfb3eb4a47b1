package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires Runner.RunDaily on a cron schedule evaluated in UTC.
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	logger  *zap.Logger
	baseCtx context.Context
}

// New parses schedule (standard five-field cron or descriptors like "@hourly").
func New(runner *Runner, schedule string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	s := &Scheduler{
		runner:  runner,
		logger:  logger,
		baseCtx: context.Background(),
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.baseCtx = ctx
	s.cron.Start()
	s.logger.Info("scheduler: started", zap.Time("next", s.Next()))

	<-ctx.Done()
	s.logger.Info("scheduler: stopping")
	<-s.cron.Stop().Done()
}

// Next reports the next planned trigger.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().UTC())
}

func (s *Scheduler) tick() {
	_, err := s.runner.RunDaily(s.baseCtx)
	switch {
	case err == nil:
	case errors.Is(err, ErrRunInProgress):
		s.logger.Info("scheduler: skipped trigger, run in progress")
	default:
		// Already logged by the syncer; the next trigger retries from the checkpoint.
		s.logger.Warn("scheduler: triggered run failed", zap.Error(err))
	}
}
