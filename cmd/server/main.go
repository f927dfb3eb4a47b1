package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/app"
	"github.com/Clark-Hu/moviesync/internal/config"
	httpserver "github.com/Clark-Hu/moviesync/internal/http"
	"github.com/Clark-Hu/moviesync/internal/logging"
	"github.com/Clark-Hu/moviesync/internal/metrics"
	"github.com/Clark-Hu/moviesync/internal/scheduler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	a, err := app.New(ctx, cfg, m, logger)
	if err != nil {
		logger.Fatal("init sync engine", zap.Error(err))
	}
	defer a.Close()

	runner := scheduler.NewRunner(a.Syncer, cfg.SyncLockFile, logger.Named("runner"))
	sched, err := scheduler.New(runner, cfg.SyncSchedule, logger.Named("scheduler"))
	if err != nil {
		logger.Fatal("init scheduler", zap.Error(err))
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	server := httpserver.New(cfg, a.Blobs, a.Syncer, runner, m.Handler(), logger.Named("http"))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()
	logger.Info("http server listening", zap.String("port", cfg.Port))

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	<-schedDone
}
