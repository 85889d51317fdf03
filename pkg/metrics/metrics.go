// Package metrics exposes Prometheus instrumentation for the distribution pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	RowsProcessed  *prometheus.CounterVec
	RemoteCalls    *prometheus.CounterVec
	RemoteRetries  *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	Notifications  *prometheus.CounterVec
}

// New registers the collectors on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "payslip_sender"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Distribution runs by final status",
			},
			[]string{"status"},
		),
		RowsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_processed_total",
				Help:      "Roster rows by outcome (uploaded, failed, skipped)",
			},
			[]string{"outcome"},
		),
		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Remote store calls by operation and result",
			},
			[]string{"op", "result"},
		),
		RemoteRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_retries_total",
				Help:      "Retries after transient remote store errors",
			},
			[]string{"op"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Latency of a single remote store attempt",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"op"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "SMS notifications by outcome",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Run(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) Row(outcome string) {
	if m == nil {
		return
	}
	m.RowsProcessed.WithLabelValues(outcome).Inc()
}

// RemoteCall records one attempt of a remote operation.
func (m *Metrics) RemoteCall(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RemoteCalls.WithLabelValues(op, result).Inc()
	m.RemoteDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Retry(op string) {
	if m == nil {
		return
	}
	m.RemoteRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) Notification(status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(status).Inc()
}
