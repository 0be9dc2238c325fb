// Package adapter normalizes raw discovered records into standardized
// sources. Each adapter recognizes one source family; a registry dispatches
// records to the first adapter that claims them.
package adapter

import (
	"context"
	"log/slog"

	"github.com/godlockin/moontv-sync/internal/source"
)

// Adapter recognizes and standardizes one family of source records.
type Adapter interface {
	// Name identifies the adapter and becomes the standardized provider
	// value unless the adapter preserves the record's own provider.
	Name() string

	// Supports reports whether this adapter recognizes the record.
	Supports(raw source.RawSourceConfig) bool

	// ToStandard converts a recognized record into a standardized source.
	// Callers must only pass records the adapter supports.
	ToStandard(raw source.RawSourceConfig) source.StandardizedSource
}

// HealthChecker is implemented by adapters that can verify a standardized
// source is still reachable. Adapters without it are assumed healthy.
type HealthChecker interface {
	Healthcheck(ctx context.Context, std source.StandardizedSource) bool
}

// Registry dispatches records to adapters in registration order. Order is
// significant: the first adapter whose Supports returns true wins, so more
// specific adapters must be registered before catch-alls.
type Registry struct {
	adapters []Adapter
	logger   *slog.Logger
}

// NewRegistry creates a registry with the given adapters, dispatched in the
// given order.
func NewRegistry(logger *slog.Logger, adapters ...Adapter) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{adapters: adapters, logger: logger}
}

// DefaultRegistry returns a registry with the built-in adapters in their
// canonical order: douban before the playlist catch-all.
func DefaultRegistry(logger *slog.Logger) *Registry {
	return NewRegistry(logger, NewDouban(), NewPlaylist(nil))
}

// Resolve returns the first adapter that supports raw, or false when none
// does.
func (r *Registry) Resolve(raw source.RawSourceConfig) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.Supports(raw) {
			return a, true
		}
	}
	return nil, false
}

// Normalize standardizes every recognized record, preserving input order.
// Unrecognized records are dropped with a warning; the dropped count is
// returned so callers can account for them.
func (r *Registry) Normalize(records []source.RawSourceConfig) ([]source.StandardizedSource, int) {
	out := make([]source.StandardizedSource, 0, len(records))
	dropped := 0
	for _, rec := range records {
		a, ok := r.Resolve(rec)
		if !ok {
			r.logger.Warn("no adapter recognized record, dropping",
				"id", rec.ID, "url", rec.URL)
			dropped++
			continue
		}
		out = append(out, a.ToStandard(rec))
	}
	return out, dropped
}

// Healthcheck re-resolves the source's raw form and runs the owning
// adapter's check. Sources without a recognizing adapter, or whose adapter
// does not implement HealthChecker, are reported healthy.
func (r *Registry) Healthcheck(ctx context.Context, std source.StandardizedSource) bool {
	a, ok := r.Resolve(std.RawSourceConfig)
	if !ok {
		return true
	}
	hc, ok := a.(HealthChecker)
	if !ok {
		return true
	}
	return hc.Healthcheck(ctx, std)
}
