package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "authtoken"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Token lifecycle metrics
	TokensIssued   *prometheus.CounterVec
	TokensResolved *prometheus.CounterVec
	TokensRevoked  *prometheus.CounterVec
	TokensSwept    *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with application metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "tokens",
			Name:      "issued_total",
			Help:      "Tokens issued, by kind.",
		}, []string{"kind"}),
		TokensResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "tokens",
			Name:      "resolved_total",
			Help:      "Token lookups, by kind and result.",
		}, []string{"kind", "result"}),
		TokensRevoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "tokens",
			Name:      "revoked_total",
			Help:      "Tokens deleted by revoke or consume, by kind.",
		}, []string{"kind"}),
		TokensSwept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "tokens",
			Name:      "swept_total",
			Help:      "Expired tokens deleted by the sweeper, by kind.",
		}, []string{"kind"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		r.TokensIssued,
		r.TokensResolved,
		r.TokensRevoked,
		r.TokensSwept,
		r.RequestsTotal,
		r.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Prometheus returns the underlying registry, for collectors owned by other
// packages (e.g. the Badger size gauges).
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// MustRegister registers additional collectors.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	if r == nil {
		return
	}
	r.reg.MustRegister(cs...)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Issued counts one issued token.
func (r *Registry) Issued(kind string) {
	if r == nil {
		return
	}
	r.TokensIssued.WithLabelValues(kind).Inc()
}

// Resolved counts one lookup; result is "ok" or an invalid-token reason.
func (r *Registry) Resolved(kind, result string) {
	if r == nil {
		return
	}
	r.TokensResolved.WithLabelValues(kind, result).Inc()
}

// Revoked counts one deleted token.
func (r *Registry) Revoked(kind string) {
	if r == nil {
		return
	}
	r.TokensRevoked.WithLabelValues(kind).Inc()
}

// Swept counts n tokens removed by a sweep.
func (r *Registry) Swept(kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.TokensSwept.WithLabelValues(kind).Add(float64(n))
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
