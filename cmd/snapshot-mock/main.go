package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/logging"
)

var snapshotName = regexp.MustCompile(`^movies(-\d{8})?\.json$`)

func main() {
	var (
		port        = flag.String("port", "9099", "port to listen on")
		dir         = flag.String("data", "snapshots", "directory holding movies-YYYYMMDD.json and movies.json")
		unavailable = flag.String("unavailable", "", "comma separated YYYYMMDD days answered with 503")
		logLevel    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if info, err := os.Stat(*dir); err != nil || !info.IsDir() {
		logger.Fatal("data directory not readable", zap.String("dir", *dir), zap.Error(err))
	}

	addr := ":" + *port
	logger.Info("mock snapshot source listening", zap.String("addr", addr), zap.String("dir", *dir))
	if err := http.ListenAndServe(addr, newHandler(*dir, splitDays(*unavailable), logger)); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func splitDays(raw string) map[string]struct{} {
	days := make(map[string]struct{})
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days[d] = struct{}{}
		}
	}
	return days
}

// newHandler serves snapshot files from dir. Unknown names and absent files
// are 404; days listed in unavailable answer 503.
func newHandler(dir string, unavailable map[string]struct{}, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/")
		if !snapshotName.MatchString(name) {
			http.NotFound(w, r)
			return
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, "movies-"), ".json")
		if _, ok := unavailable[day]; ok {
			logger.Debug("simulating outage", zap.String("day", day))
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			http.NotFound(w, r)
			return
		case err != nil:
			logger.Warn("read snapshot", zap.String("file", name), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
}
