// Package metrics holds the Prometheus instruments of the indexer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nomindex"

// Metrics holds all Prometheus metrics for the indexer. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	EventsProcessed  *prometheus.CounterVec
	EventFailures    *prometheus.CounterVec
	ApplyDuration    *prometheus.HistogramVec
	LastBlock        prometheus.Gauge
	ResolverLookups  *prometheus.CounterVec
	BatchesCommitted prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Events handled by the projector, by kind and outcome",
		}, []string{"kind", "outcome"}),
		EventFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_failures_total",
			Help:      "Events that failed to project, by error code",
		}, []string{"code"}),
		ApplyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "apply_duration_seconds",
			Help:      "Latency of one projector unit of work",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"kind"}),
		LastBlock: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_block",
			Help:      "Block number of the last applied event",
		}),
		ResolverLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_lookups_total",
			Help:      "Label name lookups, by result",
		}, []string{"result"}),
		BatchesCommitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_committed_total",
			Help:      "Source batches committed by the runner",
		}),
	}
}

// ObserveEvent records one handled event.
func (m *Metrics) ObserveEvent(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(kind, outcome).Inc()
	m.ApplyDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveFailure records a failed event by error code.
func (m *Metrics) ObserveFailure(code string) {
	if m == nil {
		return
	}
	m.EventFailures.WithLabelValues(code).Inc()
}

// SetLastBlock records the chain position reached.
func (m *Metrics) SetLastBlock(block uint64) {
	if m == nil {
		return
	}
	m.LastBlock.Set(float64(block))
}

// ObserveLookup records a resolver lookup result.
func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.ResolverLookups.WithLabelValues(result).Inc()
}

// IncBatches records a committed source batch.
func (m *Metrics) IncBatches() {
	if m == nil {
		return
	}
	m.BatchesCommitted.Inc()
}
