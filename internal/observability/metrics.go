// Package observability exposes Prometheus metrics for snapshot operations.
package observability

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prom.Registry
	operations *prom.CounterVec
	durations  *prom.HistogramVec
}

// NewMetrics builds a registry with the daemon's collectors plus the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	registry := prom.NewRegistry()
	m := &Metrics{
		registry: registry,
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "snaplvd",
			Name:      "operations_total",
			Help:      "Snapshot-set operations by action and return code.",
		}, []string{"action", "return_code"}),
		durations: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "snaplvd",
			Name:      "operation_duration_seconds",
			Help:      "Duration of snapshot-set operations.",
			Buckets:   prom.DefBuckets,
		}, []string{"action"}),
	}
	registry.MustRegister(
		m.operations,
		m.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(action string, returnCode int, elapsed time.Duration) {
	m.operations.WithLabelValues(action, strconv.Itoa(returnCode)).Inc()
	m.durations.WithLabelValues(action).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
