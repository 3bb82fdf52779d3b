// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every application collector. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Registry is private to this instance so tests can build many.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	authAttempts    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	publishFailures prometheus.Counter
	eventsConsumed  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "viajjo_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viajjo_mutations_total",
				Help: "Persisted workspace mutations by event type.",
			},
			[]string{"kind"},
		),
		authAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viajjo_auth_attempts_total",
				Help: "Register, login and logout attempts by outcome.",
			},
			[]string{"action", "outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viajjo_cache_lookups_total",
				Help: "Cache lookups by cache and result.",
			},
			[]string{"cache", "result"},
		),
		publishFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "viajjo_event_publish_failures_total",
				Help: "Domain events that could not be published.",
			},
		),
		eventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "viajjo_events_consumed_total",
				Help: "Domain events handled by the worker by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) IncMutation(kind string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind).Inc()
}

// IncAuth records an auth attempt; outcome is e.g. "ok", "invalid", "conflict".
func (m *Metrics) IncAuth(action, outcome string) {
	if m == nil {
		return
	}
	m.authAttempts.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *Metrics) IncEventConsumed(eventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsConsumed.WithLabelValues(eventType, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
