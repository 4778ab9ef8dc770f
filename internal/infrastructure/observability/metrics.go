// Package observability holds the Prometheus collector and the OpenTelemetry
// tracer setup.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every Prometheus metric of the service on its own
// registry, so several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	RemoteCalls    *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec

	SyncRuns     *prometheus.CounterVec
	SyncRows     *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec

	Mutations *prometheus.CounterVec
}

// NewCollector creates and registers the metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RemoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total number of remote backend calls",
			},
			[]string{"provider", "operation", "collection", "outcome"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Remote backend call duration in seconds, retries included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		SyncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_runs_total",
				Help:      "Total number of pull and push runs",
			},
			[]string{"direction", "outcome"},
		),
		SyncRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_rows_total",
				Help:      "Rows transferred by pull and push",
			},
			[]string{"direction", "collection"},
		),
		SyncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Pull and push duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"direction"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_total",
				Help:      "Graph mutations by kind and mode",
			},
			[]string{"kind", "mode"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.RemoteCalls,
		c.RemoteDuration,
		c.SyncRuns,
		c.SyncRows,
		c.SyncDuration,
		c.Mutations,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRemoteCall records one remote store call.
func (c *Collector) ObserveRemoteCall(provider, operation, collection, outcome string, elapsed time.Duration) {
	c.RemoteCalls.WithLabelValues(provider, operation, collection, outcome).Inc()
	c.RemoteDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// ObserveSync records one pull or push run.
func (c *Collector) ObserveSync(direction, outcome string, rows map[string]int, elapsed time.Duration) {
	c.SyncRuns.WithLabelValues(direction, outcome).Inc()
	c.SyncDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
	for collection, n := range rows {
		c.SyncRows.WithLabelValues(direction, collection).Add(float64(n))
	}
}

// ObserveMutation counts one graph mutation.
func (c *Collector) ObserveMutation(kind, mode string) {
	c.Mutations.WithLabelValues(kind, mode).Inc()
}

// Middleware records request count and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
