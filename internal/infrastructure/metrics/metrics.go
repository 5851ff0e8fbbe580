// Package metrics exposes the service's prometheus collectors. All recording
// methods are safe to call on a nil *Metrics so tests can skip wiring it.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "device_license"

type Metrics struct {
	registry *prometheus.Registry

	decisions   *prometheus.CounterVec
	codeUsage   prometheus.Counter
	auditWrites *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// New builds a private registry with the Go and process collectors plus the
// service collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Authorization decisions by entry point and outcome.",
		}, []string{"endpoint", "status"}),
		codeUsage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_code_usage_total",
			Help:      "Successful grants recorded against authorization codes.",
		}),
		auditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_log_entries_total",
			Help:      "Access log entries written by type.",
		}, []string{"access_type", "expired"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.codeUsage,
		m.auditWrites,
		m.httpLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDecision(endpoint, status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(endpoint, status).Inc()
}

func (m *Metrics) ObserveCodeUsage() {
	if m == nil {
		return
	}
	m.codeUsage.Inc()
}

func (m *Metrics) ObserveAccessLog(accessType string, expired bool) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(accessType, strconv.FormatBool(expired)).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
