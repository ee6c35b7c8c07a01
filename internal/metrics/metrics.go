// Package metrics exposes prometheus metrics for store operations and
// identifier resolution.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/alvinp540/edutrack/store"
)

const namespace = "edutrack"

// Operation outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Metrics holds the edutrack collectors, registered on one registry.
type Metrics struct {
	// storeOps counts backend calls.
	// Labels: backend, collection, operation, outcome
	storeOps *prometheus.CounterVec

	// storeLatency measures backend call latency in seconds.
	// Labels: backend, operation
	storeLatency *prometheus.HistogramVec

	// resolutions counts resolver strategy attempts.
	// Labels: collection, strategy, outcome (hit, miss, ambiguous, error)
	resolutions *prometheus.CounterVec
}

// New registers the edutrack collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by backend, collection, operation and outcome",
		}, []string{"backend", "collection", "operation", "outcome"}),
		storeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"backend", "operation"}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "attempts_total",
			Help:      "Identifier resolution attempts by collection, strategy and outcome",
		}, []string{"collection", "strategy", "outcome"}),
	}
}

// NewRegistry returns a registry holding the edutrack collectors plus the
// standard Go runtime and process collectors.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, New(reg)
}

// ObserveResolution records one resolver strategy attempt. Its signature
// matches school.ResolveObserver.
func (m *Metrics) ObserveResolution(c store.Collection, strategy, outcome string) {
	m.resolutions.WithLabelValues(string(c), strategy, outcome).Inc()
}

func (m *Metrics) observe(backend string, c store.Collection, op string, start time.Time, err error) {
	m.storeOps.WithLabelValues(backend, string(c), op, outcome(err)).Inc()
	m.storeLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, store.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, store.ErrUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomeError
}
