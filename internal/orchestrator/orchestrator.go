// Package orchestrator drives one full sync run: discovery, merging with
// the static defaults, adapter normalization, health checks, reporting
// stats and a best-effort snapshot.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/godlockin/moontv-sync/internal/snapshot"
	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/telemetry"
)

// Discoverer produces deduplicated, scored raw records from the registries.
type Discoverer interface {
	Discover(ctx context.Context) ([]source.RawSourceConfig, error)
}

// AdapterRegistry normalizes raw records and health-checks the results.
type AdapterRegistry interface {
	Normalize(records []source.RawSourceConfig) ([]source.StandardizedSource, int)
	Healthcheck(ctx context.Context, std source.StandardizedSource) bool
}

// Orchestrator assembles one run's pipeline stages.
type Orchestrator struct {
	discoverer Discoverer
	adapters   AdapterRegistry
	defaults   []source.RawSourceConfig
	snapshots  snapshot.Writer
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDefaults sets the static sources merged ahead of discovered ones.
func WithDefaults(defaults []source.RawSourceConfig) Option {
	return func(o *Orchestrator) {
		o.defaults = defaults
	}
}

// WithSnapshotWriter enables best-effort snapshot persistence. Without it,
// runs skip the snapshot stage entirely.
func WithSnapshotWriter(w snapshot.Writer) Option {
	return func(o *Orchestrator) {
		o.snapshots = w
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records run outcomes on the given collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New creates an Orchestrator over a discoverer and an adapter registry.
func New(discoverer Discoverer, adapters AdapterRegistry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		discoverer: discoverer,
		adapters:   adapters,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one sync run. Discovery failure fails the run; everything
// after discovery degrades instead of failing, except normalization which is
// a precondition for the result. A snapshot failure is reported on the
// result, never as a run error.
func (o *Orchestrator) Run(ctx context.Context) (source.OrchestrationResult, error) {
	runID := uuid.NewString()
	logger := o.logger.With("runId", runID)
	logger.Info("sync run starting")

	discovered, err := o.discoverer.Discover(ctx)
	if err != nil {
		return source.OrchestrationResult{RunID: runID}, fmt.Errorf("discovery: %w", err)
	}

	// Defaults come first so a discovered record with the same id replaces
	// the default's value while keeping its position in the list.
	combined := make([]source.RawSourceConfig, 0, len(o.defaults)+len(discovered))
	combined = append(combined, o.defaults...)
	combined = append(combined, discovered...)
	merged := mergeByID(combined)

	sources, dropped := o.adapters.Normalize(merged)
	if dropped > 0 && o.metrics != nil {
		o.metrics.RecordsDropped.Add(float64(dropped))
	}

	o.healthcheck(ctx, sources)

	result := source.OrchestrationResult{
		RunID:   runID,
		Sources: sources,
		Stats:   buildStats(sources),
	}

	if o.snapshots != nil {
		if err := o.snapshots.Write(sources); err != nil {
			logger.Warn("snapshot write failed", "error", err)
			result.SnapshotErr = err
		}
	}

	if o.metrics != nil {
		o.metrics.LastRunSources.Set(float64(len(sources)))
	}
	logger.Info("sync run finished",
		"sources", len(sources), "dropped", dropped)
	return result, nil
}

// healthcheck marks each source active or failing in place.
func (o *Orchestrator) healthcheck(ctx context.Context, sources []source.StandardizedSource) {
	for i := range sources {
		if o.adapters.Healthcheck(ctx, sources[i]) {
			sources[i].Active = true
			sources[i].Health = source.HealthHealthy
			continue
		}
		sources[i].Active = false
		sources[i].Health = source.HealthFailing
		o.logger.Debug("source failed health check",
			"id", sources[i].ID, "url", sources[i].URL)
	}
}

// mergeByID collapses records sharing an id. The last record's value wins
// but the first occurrence's position is kept, so defaults stay at the top
// of the list even when a discovered record overrides them.
func mergeByID(records []source.RawSourceConfig) []source.RawSourceConfig {
	index := make(map[string]int, len(records))
	out := make([]source.RawSourceConfig, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			out[i] = r
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func buildStats(sources []source.StandardizedSource) source.Stats {
	stats := source.Stats{
		Total:      len(sources),
		ByRegistry: make(map[string]int, 4),
	}
	for _, s := range sources {
		stats.ByRegistry[s.Provider]++
		stats.QualityDistribution.Add(s.QualityScore)
	}
	return stats
}
