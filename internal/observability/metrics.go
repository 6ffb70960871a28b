package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's Prometheus collectors:
//   - http_request_duration_seconds{method,route,status}
//   - http_request_errors_total{method,route,code}
//   - guard_decisions_total{action}
//   - session_transitions_total{kind}
//   - bootstrap_outcomes_total{state,via}
type Metrics struct {
	registry    *prometheus.Registry
	reqDuration *prometheus.HistogramVec
	reqErrors   *prometheus.CounterVec
	decisions   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	bootstraps  *prometheus.CounterVec
}

// NewMetrics registers the collectors in a fresh registry under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Requests that ended in an error response, by error code.",
		}, []string{"method", "route", "code"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard and request inspector decisions.",
		}, []string{"action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session establish and clear transitions.",
		}, []string{"kind"}),
		bootstraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_outcomes_total",
			Help:      "Completed session bootstrap passes.",
		}, []string{"state", "via"}),
	}
	m.registry.MustRegister(m.reqDuration, m.reqErrors, m.decisions, m.transitions, m.bootstraps)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest observes one finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.reqDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.reqErrors.WithLabelValues(method, route, code).Inc()
}

// RecordGuardDecision counts a guard or inspector decision.
func (m *Metrics) RecordGuardDecision(action string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(action).Inc()
}

// RecordSessionTransition counts an establish or clear.
func (m *Metrics) RecordSessionTransition(kind string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
}

// RecordBootstrapOutcome counts a finished bootstrap pass.
func (m *Metrics) RecordBootstrapOutcome(state, via string) {
	if m == nil {
		return
	}
	m.bootstraps.WithLabelValues(state, via).Inc()
}
