package snapshot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL+"/", timeout, zap.NewNop())
	require.NoError(t, err)
	return client
}

var day = time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)

func TestDayPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/movies-20250108.json", DayPath(day))
	assert.Equal(t, "/movies-20241231.json", DayPath(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)))
}

func TestFetchDay_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  Status
		wantMovies  int
		wantInvalid bool
	}{
		{
			name:       "published",
			status:     http.StatusOK,
			body:       `[{"title":"Heat","imdb_id":"tt0113277","poster_url":"p"}]`,
			wantStatus: StatusPublished,
			wantMovies: 1,
		},
		{
			name:       "published empty",
			status:     http.StatusOK,
			body:       `[]`,
			wantStatus: StatusPublished,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       "Not Found",
			wantStatus: StatusMissing,
		},
		{
			name:       "malformed body",
			status:     http.StatusOK,
			body:       `[{"title":"Heat"`,
			wantStatus: StatusMalformed,
		},
		{
			name:        "object body",
			status:      http.StatusOK,
			body:        `{}`,
			wantInvalid: true,
		},
		{
			name:        "null body",
			status:      http.StatusOK,
			body:        `null`,
			wantInvalid: true,
		},
		{
			name:        "string body",
			status:      http.StatusOK,
			body:        `"str"`,
			wantInvalid: true,
		},
		{
			name:        "error object body",
			status:      http.StatusOK,
			body:        `{"error":"quota"}`,
			wantInvalid: true,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			wantStatus: StatusUnavailable,
		},
		{
			name:       "forbidden",
			status:     http.StatusForbidden,
			wantStatus: StatusUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			paths := make(chan string, 1)
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				paths <- r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			res, err := client.FetchDay(context.Background(), day)
			assert.Equal(t, "/movies-20250108.json", <-paths)
			if tt.wantInvalid {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, -1, verr.Index)
				assert.Contains(t, verr.Source, "/movies-20250108.json")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Len(t, res.Movies, tt.wantMovies)
		})
	}
}

func TestFetchDay_SchemaViolationPropagates(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"title":"Heat","imdb_id":42,"poster_url":"p"}]`))
	}, time.Second)

	_, err := client.FetchDay(context.Background(), day)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.FieldIMDbID, verr.Field)
	assert.Contains(t, verr.Source, "/movies-20250108.json")
}

func TestFetchDay_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := client.FetchDay(context.Background(), day)
	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
}

func TestFetchDay_ConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewHTTPClient(base, time.Second, nil)
	require.NoError(t, err)

	_, err = client.FetchDay(context.Background(), day)
	var ferr *domain.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, base+"/movies-20250108.json", ferr.URL)
}

func TestFetchLatest(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != LatestPath {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"title":"A","imdb_id":"tt1","poster_url":"p"},{"title":"B","imdb_id":"tt2","poster_url":"p"}]`))
	}, time.Second)

	res, err := client.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, res.Status)
	require.Len(t, res.Movies, 2)
	assert.Equal(t, "tt2", res.Movies[1].IMDbID)
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPClient("not a url", time.Second, nil)
	assert.Error(t, err)
	_, err = NewHTTPClient("://bad", time.Second, nil)
	assert.Error(t, err)
}

func TestStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPublished.Processed())
	assert.True(t, StatusMissing.Processed())
	assert.True(t, StatusMalformed.Processed())
	assert.False(t, StatusUnavailable.Processed())
	assert.Equal(t, "unavailable", StatusUnavailable.String())
}
