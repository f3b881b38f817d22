// Package metrics holds the Prometheus collectors for the bank service.
// Collectors are registered on a caller-supplied registry so tests can use a
// fresh one each time. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "community_bank"

type Metrics struct {
	LedgerOperations      *prometheus.CounterVec
	LedgerRetries         *prometheus.CounterVec
	LedgerDuration        *prometheus.HistogramVec
	ApplicationDecisions  *prometheus.CounterVec
	ApplicationsSubmitted prometheus.Counter
	RegistrationSteps     *prometheus.CounterVec
	Notifications         *prometheus.CounterVec
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LedgerOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		LedgerRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "retries_total",
			Help:      "Ledger transactions re-run after a concurrency conflict.",
		}, []string{"operation"}),
		LedgerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations including retries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		ApplicationDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "decisions_total",
			Help:      "Application decisions by outcome.",
		}, []string{"decision"}),
		ApplicationsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "submitted_total",
			Help:      "Applications submitted for review.",
		}),
		RegistrationSteps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "steps_total",
			Help:      "Registration steps by field and outcome.",
		}, []string{"field", "outcome"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "total",
			Help:      "Notification enqueue and delivery outcomes.",
		}, []string{"stage", "outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
	}
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) ObserveLedger(operation, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, outcome).Inc()
	m.LedgerDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementLedgerRetry(operation string) {
	if m == nil {
		return
	}
	m.LedgerRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementSubmitted() {
	if m == nil {
		return
	}
	m.ApplicationsSubmitted.Inc()
}

func (m *Metrics) IncrementDecision(decision string) {
	if m == nil {
		return
	}
	m.ApplicationDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementRegistrationStep(field, outcome string) {
	if m == nil {
		return
	}
	m.RegistrationSteps.WithLabelValues(field, outcome).Inc()
}

// IncrementNotification records an outcome for stage "enqueue" or "deliver".
func (m *Metrics) IncrementNotification(stage, outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}
