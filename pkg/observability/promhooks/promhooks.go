// Package promhooks implements the observability hooks with Prometheus
// collectors registered on a private registry.
package promhooks

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/feedsolve/pkg/observability"
)

// Hooks implements every observability hook interface.
type Hooks struct {
	registry *prometheus.Registry

	solveTotal      *prometheus.CounterVec
	solveDuration   prometheus.Histogram
	solveBacktracks prometheus.Histogram
	candidates      *prometheus.CounterVec
	feedLoads       *prometheus.CounterVec
	feedDuration    *prometheus.HistogramVec
	cacheEvents     *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry.
func New() *Hooks {
	h := &Hooks{
		registry: prometheus.NewRegistry(),
		solveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsolve_solve_total",
				Help: "Number of solves by outcome.",
			},
			[]string{"outcome"},
		),
		solveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feedsolve_solve_duration_seconds",
				Help:    "Time taken by a solve.",
				Buckets: prometheus.DefBuckets,
			},
		),
		solveBacktracks: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feedsolve_solve_backtracks",
				Help:    "Backtracks performed per solve.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsolve_candidates_total",
				Help: "Candidates considered, split by suitability.",
			},
			[]string{"suitable"},
		),
		feedLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsolve_feed_loads_total",
				Help: "Feed loads by source and result.",
			},
			[]string{"source", "result"},
		),
		feedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedsolve_feed_load_duration_seconds",
				Help:    "Time taken to load a feed.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		cacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsolve_cache_events_total",
				Help: "Cache hits, misses and writes by key type.",
			},
			[]string{"key_type", "event"},
		),
		cacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "feedsolve_cache_written_bytes_total",
				Help: "Bytes written to the cache.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsolve_http_requests_total",
				Help: "HTTP requests by host and status class.",
			},
			[]string{"host", "status"},
		),
		httpDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "feedsolve_http_request_duration_seconds",
				Help:    "Time taken by HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	h.registry.MustRegister(
		h.solveTotal, h.solveDuration, h.solveBacktracks, h.candidates,
		h.feedLoads, h.feedDuration, h.cacheEvents, h.cacheBytes,
		h.httpRequests, h.httpDuration,
	)
	return h
}

// Registry returns the registry holding the collectors.
func (h *Hooks) Registry() *prometheus.Registry { return h.registry }

// Install registers h as the global solver, feed, cache and HTTP hooks.
func (h *Hooks) Install() {
	observability.SetSolverHooks(h)
	observability.SetFeedHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

// WriteFile writes the current metrics in the Prometheus text format.
func (h *Hooks) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, h.registry)
}

func (h *Hooks) OnSolveStart(context.Context, string) {}

func (h *Hooks) OnSolveComplete(_ context.Context, _ string, stats observability.SolveStats, d time.Duration, _ error) {
	h.solveTotal.WithLabelValues(stats.Outcome).Inc()
	h.solveDuration.Observe(d.Seconds())
	h.solveBacktracks.Observe(float64(stats.Backtracks))
}

func (h *Hooks) OnCandidates(_ context.Context, _ string, total, suitable int) {
	h.candidates.WithLabelValues("true").Add(float64(suitable))
	h.candidates.WithLabelValues("false").Add(float64(total - suitable))
}

func (h *Hooks) OnFeedLoad(_ context.Context, _ string, source string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.feedLoads.WithLabelValues(source, result).Inc()
	h.feedDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(host, statusClass(status)).Inc()
	h.httpDuration.Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.httpRequests.WithLabelValues(host, "error").Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}

var (
	_ observability.SolverHooks = (*Hooks)(nil)
	_ observability.FeedHooks   = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
	_ observability.HTTPHooks   = (*Hooks)(nil)
)
