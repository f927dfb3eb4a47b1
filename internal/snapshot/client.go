package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Clark-Hu/moviesync/internal/domain"
)

// DefaultTimeout bounds a single snapshot request.
const DefaultTimeout = time.Second

// Status classifies the outcome of a snapshot request that did not fail at
// the transport level.
type Status int

const (
	// StatusPublished means the snapshot was fetched and parsed.
	StatusPublished Status = iota
	// StatusMissing means upstream answered 404: nothing was published.
	StatusMissing
	// StatusMalformed means a 2xx body that is not a JSON array.
	StatusMalformed
	// StatusUnavailable means any other non-2xx answer.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusPublished:
		return "published"
	case StatusMissing:
		return "missing"
	case StatusMalformed:
		return "malformed"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Processed reports whether the outcome confirms the snapshot, possibly as
// empty. Only StatusUnavailable leaves the day unconfirmed.
func (s Status) Processed() bool {
	return s != StatusUnavailable
}

// Result is the outcome of one snapshot request.
type Result struct {
	Status     Status
	StatusCode int
	Movies     []domain.Movie
}

// Fetcher defines the contract for reading snapshots from upstream.
type Fetcher interface {
	FetchDay(ctx context.Context, day time.Time) (Result, error)
	FetchLatest(ctx context.Context) (Result, error)
}

// HTTPClient implements Fetcher over HTTP.
type HTTPClient struct {
	baseURL string
	client  *resty.Client
	logger  *zap.Logger
}

// NewHTTPClient constructs a new HTTP-backed snapshot client. Requests are not
// retried.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse snapshot url: %q is not absolute", baseURL)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	client := resty.NewWithClient(httpClient).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	return &HTTPClient{
		baseURL: parsed.String(),
		client:  client,
		logger:  logger,
	}, nil
}

// DayPath is the snapshot path published for day.
func DayPath(day time.Time) string {
	y, m, d := domain.Day(day).Date()
	return fmt.Sprintf("/movies-%04d%02d%02d.json", y, int(m), d)
}

// LatestPath is the path of the most recent snapshot.
const LatestPath = "/movies.json"

// FetchDay retrieves the snapshot published for day.
func (c *HTTPClient) FetchDay(ctx context.Context, day time.Time) (Result, error) {
	return c.fetch(ctx, DayPath(day))
}

// FetchLatest retrieves the most recent snapshot.
func (c *HTTPClient) FetchLatest(ctx context.Context) (Result, error) {
	return c.fetch(ctx, LatestPath)
}

func (c *HTTPClient) fetch(ctx context.Context, path string) (Result, error) {
	endpoint := c.baseURL + path

	resp, err := c.client.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return Result{}, &domain.FetchError{URL: endpoint, Err: err}
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		movies, err := domain.ParseMovies(resp.Body())
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				verr.Source = endpoint
				return Result{}, verr
			}
			c.logger.Warn("snapshot: unparsable body treated as empty",
				zap.String("url", endpoint), zap.Error(err))
			return Result{Status: StatusMalformed, StatusCode: code}, nil
		}
		return Result{Status: StatusPublished, StatusCode: code, Movies: movies}, nil
	case code == http.StatusNotFound:
		return Result{Status: StatusMissing, StatusCode: code}, nil
	default:
		c.logger.Warn("snapshot: unexpected status",
			zap.String("url", endpoint), zap.Int("status", code))
		return Result{Status: StatusUnavailable, StatusCode: code}, nil
	}
}
