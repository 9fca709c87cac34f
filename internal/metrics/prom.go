package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus metrics exported by the pipeline.
type Registry struct {
	reg *prometheus.Registry

	// Collection metrics
	PostsCollected *prometheus.CounterVec
	SyntheticPosts *prometheus.CounterVec
	CollectionRuns *prometheus.CounterVec

	// Pipeline stage metrics
	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec

	// Store metrics
	StoreSize *prometheus.GaugeVec

	// Response cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates a registry with every pipeline metric registered on a
// dedicated Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		PostsCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_posts_collected_total",
				Help: "Total posts collected by source platform",
			},
			[]string{"source"},
		),

		SyntheticPosts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_synthetic_posts_total",
				Help: "Total fallback posts served when a source fetch failed",
			},
			[]string{"source"},
		),

		CollectionRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_collection_runs_total",
				Help: "Total collection cycles by trigger and status",
			},
			[]string{"trigger", "status"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epa_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"stage"},
		),

		StageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_stage_errors_total",
				Help: "Total pipeline stage failures including recovered panics",
			},
			[]string{"stage"},
		),

		StoreSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "epa_store_posts",
				Help: "Number of posts held per store collection",
			},
			[]string{"collection"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_cache_hits_total",
				Help: "Response cache hits by endpoint key",
			},
			[]string{"key"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_cache_misses_total",
				Help: "Response cache misses by endpoint key",
			},
			[]string{"key"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "epa_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	r.reg.MustRegister(
		r.PostsCollected,
		r.SyntheticPosts,
		r.CollectionRuns,
		r.StageDuration,
		r.StageErrors,
		r.StoreSize,
		r.CacheHits,
		r.CacheMisses,
		r.HTTPRequests,
	)

	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
