// Package telemetry defines the Prometheus metrics exposed by the sync
// service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcome label values for SyncRuns.
const (
	RunSuccess  = "success"
	RunFailure  = "failure"
	RunConflict = "conflict"
)

// Metrics holds the sync pipeline's Prometheus collectors.
type Metrics struct {
	// SyncRuns counts orchestration runs by outcome.
	SyncRuns *prometheus.CounterVec

	// SourcesDiscovered counts raw records parsed per registry.
	SourcesDiscovered *prometheus.CounterVec

	// RecordsDropped counts records no adapter recognized.
	RecordsDropped prometheus.Counter

	// ProbeDuration observes quality probe round-trip times.
	ProbeDuration prometheus.Histogram

	// LastRunSources reports the source total of the most recent run.
	LastRunSources prometheus.Gauge
}

// NewMetrics registers the sync collectors on reg and returns them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moontv_sync_runs_total",
			Help: "Orchestration runs by outcome.",
		}, []string{"result"}),
		SourcesDiscovered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "moontv_sync_sources_discovered_total",
			Help: "Raw source records parsed, per registry.",
		}, []string{"registry"}),
		RecordsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "moontv_sync_records_dropped_total",
			Help: "Records skipped because no adapter recognized them.",
		}),
		ProbeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "moontv_sync_probe_duration_seconds",
			Help:    "Quality probe round-trip time.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 3, 5, 10},
		}),
		LastRunSources: factory.NewGauge(prometheus.GaugeOpts{
			Name: "moontv_sync_last_run_sources",
			Help: "Standardized sources produced by the most recent run.",
		}),
	}
}
