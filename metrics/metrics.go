// Package metrics exposes Prometheus instrumentation for the vault:
// seal state, unseal attempts, and secret operations, served on a
// dedicated listener.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the vault's collectors, registered on a private
// registry so tests can create instances independently.
type Metrics struct {
	registry *prometheus.Registry

	// VaultSealed is 1 while the vault is sealed, 0 while unsealed.
	VaultSealed prometheus.Gauge

	// UnsealAttempts counts unseal share submissions by result
	// (accepted, rejected).
	UnsealAttempts *prometheus.CounterVec

	// SealTransitions counts transitions to sealed by trigger
	// (manual, inactivity).
	SealTransitions *prometheus.CounterVec

	// SecretOperations counts secret store operations by op
	// (put, get, delete) and result (ok, error, sealed).
	SecretOperations *prometheus.CounterVec

	// SecretOpDuration observes end-to-end secret operation latency by
	// op, envelope crypto included.
	SecretOpDuration *prometheus.HistogramVec
}

// New creates a Metrics instance under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		VaultSealed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sealed",
			Help:      "Whether the vault is currently sealed (1) or unsealed (0).",
		}),
		UnsealAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unseal_attempts_total",
			Help:      "Unseal share submissions by result.",
		}, []string{"result"}),
		SealTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seal_transitions_total",
			Help:      "Transitions to the sealed state by trigger.",
		}, []string{"trigger"}),
		SecretOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "secret_operations_total",
			Help:      "Secret store operations by op and result.",
		}, []string{"op", "result"}),
		SecretOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "secret_operation_duration_seconds",
			Help:      "Secret store operation latency by op.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	registry.MustRegister(m.VaultSealed, m.UnsealAttempts, m.SealTransitions, m.SecretOperations, m.SecretOpDuration)
	m.VaultSealed.Set(1)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server serves the metrics registry on its own address.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics server for the given instance.
func NewServer(m *Metrics, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// ListenAndServe blocks serving metrics until shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
