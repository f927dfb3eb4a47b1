// Package metrics exposes Prometheus collectors for synchronization runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moviesync"

// Metrics groups the sync collectors and the registry they live in.
type Metrics struct {
	registry       *prometheus.Registry
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	days           *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	moviesAdded    prometheus.Counter
	collectionSize prometheus.Gauge
	checkpoint     prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Synchronization runs by result.",
		}, []string{"kind", "result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of synchronization runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		days: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_total",
			Help:      "Processed snapshot days by outcome.",
		}, []string{"status"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of snapshot requests.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5},
		}),
		moviesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movies_added_total",
			Help:      "Movies appended to the collection.",
		}),
		collectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_size",
			Help:      "Movies in the stored collection after the last run.",
		}),
		checkpoint: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checkpoint_timestamp_seconds",
			Help:      "Checkpoint day as a unix timestamp.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs, m.runDuration, m.days, m.fetchDuration,
		m.moviesAdded, m.collectionSize, m.checkpoint,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRun records a finished run. kind is "daily" or "latest".
func (m *Metrics) ObserveRun(kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, result).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// ObserveDay records one processed day.
func (m *Metrics) ObserveDay(status string) {
	if m == nil {
		return
	}
	m.days.WithLabelValues(status).Inc()
}

// ObserveFetch records the latency of one snapshot request.
func (m *Metrics) ObserveFetch(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(elapsed.Seconds())
}

// AddMovies counts newly merged movies.
func (m *Metrics) AddMovies(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.moviesAdded.Add(float64(n))
}

// SetCollectionSize records the persisted collection length.
func (m *Metrics) SetCollectionSize(n int) {
	if m == nil {
		return
	}
	m.collectionSize.Set(float64(n))
}

// SetCheckpoint records the persisted checkpoint.
func (m *Metrics) SetCheckpoint(day time.Time) {
	if m == nil {
		return
	}
	m.checkpoint.Set(float64(day.Unix()))
}
