package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/blob"
	"github.com/Clark-Hu/moviesync/internal/config"
	"github.com/Clark-Hu/moviesync/internal/domain"
	"github.com/Clark-Hu/moviesync/internal/syncer"
)

// Reader is the read side of the sync engine.
type Reader interface {
	ReadCollection(ctx context.Context) ([]domain.Movie, error)
	Checkpoint(ctx context.Context) (time.Time, error)
}

// Trigger starts guarded sync runs.
type Trigger interface {
	RunDaily(ctx context.Context) (syncer.Report, error)
	RunLatest(ctx context.Context) (syncer.Report, error)
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	blobs   blob.Store
	reader  Reader
	trigger Trigger
	metrics http.Handler
	logger  *zap.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes. A nil
// metrics handler leaves /metrics unregistered.
func New(cfg config.Config, blobs blob.Store, reader Reader, trigger Trigger, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:     cfg,
		blobs:   blobs,
		reader:  reader,
		trigger: trigger,
		metrics: metrics,
		logger:  logger,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/movies", s.handleListMovies)
	s.router.Get("/checkpoint", s.handleCheckpoint)
	s.router.Route("/sync", func(r chi.Router) {
		r.Post("/", s.handleSync)
		r.Post("/latest", s.handleSyncLatest)
	})
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if hc, ok := s.blobs.(blob.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
