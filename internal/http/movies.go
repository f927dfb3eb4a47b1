package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/domain"
	"github.com/Clark-Hu/moviesync/internal/scheduler"
	"github.com/Clark-Hu/moviesync/internal/syncer"
)

const maxListLimit = 1000

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type checkpointResponse struct {
	LastSynced string `json:"lastSynced"`
}

type dayReportResponse struct {
	Day       string `json:"day"`
	Status    string `json:"status"`
	Fetched   int    `json:"fetched"`
	Added     int    `json:"added"`
	Committed bool   `json:"committed"`
}

type syncResponse struct {
	RunID          string              `json:"runId"`
	Kind           string              `json:"kind"`
	LastSynced     string              `json:"lastSynced,omitempty"`
	Days           []dayReportResponse `json:"days"`
	Added          int                 `json:"added"`
	CollectionSize int                 `json:"collectionSize"`
	Stalled        bool                `json:"stalled"`
}

// movieFilters narrows the stored collection for the list endpoint. The
// collection is never reordered.
type movieFilters struct {
	Query  string
	IMDbID string
	Limit  int
	Offset int
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movies, err := s.reader.ReadCollection(r.Context())
	if err != nil {
		s.logger.Error("read collection", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read collection")
		return
	}

	s.respondJSON(w, http.StatusOK, applyMovieFilters(movies, filters))
}

func buildMovieFilters(query url.Values) (movieFilters, error) {
	var filters movieFilters

	filters.Query = strings.ToLower(strings.TrimSpace(query.Get("q")))
	filters.IMDbID = strings.TrimSpace(query.Get("imdbId"))
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit < 0 {
			return filters, fmt.Errorf("invalid limit value")
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("offset")); val != "" {
		offset, err := strconv.Atoi(val)
		if err != nil || offset < 0 {
			return filters, fmt.Errorf("invalid offset value")
		}
		filters.Offset = offset
	}
	return filters, nil
}

func applyMovieFilters(movies []domain.Movie, filters movieFilters) []domain.Movie {
	out := make([]domain.Movie, 0, len(movies))
	skipped := 0
	for _, m := range movies {
		if filters.IMDbID != "" && m.IMDbID != filters.IMDbID {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(m.Title), filters.Query) {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}
		out = append(out, m)
		if filters.Limit > 0 && len(out) == filters.Limit {
			break
		}
	}
	return out
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	day, err := s.reader.Checkpoint(r.Context())
	if err != nil {
		s.logger.Error("read checkpoint", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read checkpoint")
		return
	}
	s.respondJSON(w, http.StatusOK, checkpointResponse{LastSynced: domain.FormatDay(day)})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	report, err := s.trigger.RunDaily(r.Context())
	s.respondRun(w, report, err)
}

func (s *Server) handleSyncLatest(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
		return
	}
	report, err := s.trigger.RunLatest(r.Context())
	s.respondRun(w, report, err)
}

func (s *Server) respondRun(w http.ResponseWriter, report syncer.Report, err error) {
	var (
		fetchErr      *domain.FetchError
		checkpointErr *domain.InvalidCheckpointError
	)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, toSyncResponse(report))
	case errors.Is(err, scheduler.ErrRunInProgress):
		s.respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS", "A sync run is already in progress")
	case errors.As(err, &fetchErr):
		s.respondJSON(w, http.StatusBadGateway, errorResponse{
			Code:    "UPSTREAM_UNREACHABLE",
			Message: "Snapshot source could not be reached",
			Details: toSyncResponse(report),
		})
	case errors.As(err, &checkpointErr):
		s.respondError(w, http.StatusConflict, "INVALID_CHECKPOINT", checkpointErr.Error())
	default:
		s.logger.Error("sync run failed", zap.String("run_id", report.RunID), zap.Error(err))
		s.respondJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "SYNC_FAILED",
			Message: "Sync run failed",
			Details: toSyncResponse(report),
		})
	}
}

func toSyncResponse(report syncer.Report) syncResponse {
	resp := syncResponse{
		RunID:          report.RunID,
		Kind:           report.Kind,
		Days:           make([]dayReportResponse, 0, len(report.Days)),
		Added:          report.Added,
		CollectionSize: report.CollectionSize,
		Stalled:        report.Stalled,
	}
	if !report.Checkpoint.IsZero() {
		resp.LastSynced = domain.FormatDay(report.Checkpoint)
	}
	for _, d := range report.Days {
		resp.Days = append(resp.Days, dayReportResponse{
			Day:       domain.FormatDay(d.Day),
			Status:    d.Status.String(),
			Fetched:   d.Fetched,
			Added:     d.Added,
			Committed: d.Committed,
		})
	}
	return resp
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn("failed to encode response", zap.Error(err))
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// verifyBearer rejects every request when no token is configured.
func (s *Server) verifyBearer(header string) bool {
	if header == "" || s.cfg.AuthToken == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
