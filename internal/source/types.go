// Package source defines the shared data model for the discovery pipeline:
// raw candidate sources as produced by crawlers, the standardized shape
// consumed by downstream collaborators, and per-run reporting types.
package source

import (
	"encoding/json"
	"time"
)

// Health classifies a standardized source after its adapter health check.
// It is distinct from the pre-scoring accessibility probe result.
type Health string

const (
	// HealthHealthy means the adapter's liveness check passed.
	HealthHealthy Health = "healthy"

	// HealthFailing means the adapter's liveness check failed.
	HealthFailing Health = "failing"

	// HealthUnknown means no liveness check has been performed.
	HealthUnknown Health = "unknown"
)

// RawSourceConfig is an unvalidated candidate source as produced by a crawler
// or taken from the static default set. IDs are unique within one crawler's
// output but carry no global uniqueness guarantee.
//
// Unrecognized JSON fields survive an unmarshal/marshal round trip via Extra,
// so adapter-specific annotations pass through the pipeline untouched.
type RawSourceConfig struct {
	ID           string     `json:"id"`
	URL          string     `json:"url"`
	Name         string     `json:"name,omitempty"`
	Note         string     `json:"note,omitempty"`
	Region       string     `json:"region,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	QualityScore int        `json:"qualityScore,omitempty"`
	CheckedAt    *time.Time `json:"checkedAt,omitempty"`

	// Extra holds fields not covered by the struct above.
	Extra map[string]any `json:"-"`
}

// rawKnownKeys are the JSON keys owned by RawSourceConfig struct fields.
var rawKnownKeys = []string{
	"id", "url", "name", "note", "region", "provider", "qualityScore", "checkedAt",
}

// asMap flattens the struct fields and the extension bag into one map.
// Struct fields win over Extra entries with the same key.
func (r RawSourceConfig) asMap() map[string]any {
	m := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["id"] = r.ID
	m["url"] = r.URL
	if r.Name != "" {
		m["name"] = r.Name
	}
	if r.Note != "" {
		m["note"] = r.Note
	}
	if r.Region != "" {
		m["region"] = r.Region
	}
	if r.Provider != "" {
		m["provider"] = r.Provider
	}
	if r.QualityScore != 0 {
		m["qualityScore"] = r.QualityScore
	}
	if r.CheckedAt != nil {
		m["checkedAt"] = r.CheckedAt.Format(time.RFC3339)
	}
	return m
}

// MarshalJSON flattens Extra alongside the declared fields.
func (r RawSourceConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.asMap())
}

// UnmarshalJSON captures unknown keys into Extra.
func (r *RawSourceConfig) UnmarshalJSON(data []byte) error {
	type plain RawSourceConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range rawKnownKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		p.Extra = make(map[string]any, len(fields))
		for k, raw := range fields {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			p.Extra[k] = v
		}
	}
	*r = RawSourceConfig(p)
	return nil
}

// Clone returns a copy with its own Extra map, so a record can cross a
// component boundary without aliasing the original.
func (r RawSourceConfig) Clone() RawSourceConfig {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// StandardizedSource is the canonical adapter-normalized record shape. The
// embedded Provider field is always non-empty and Active is always set.
type StandardizedSource struct {
	RawSourceConfig

	Active bool   `json:"active"`
	Health Health `json:"health,omitempty"`
}

// MarshalJSON flattens the embedded raw record (including Extra) together
// with the standardized fields.
func (s StandardizedSource) MarshalJSON() ([]byte, error) {
	m := s.asMap()
	m["active"] = s.Active
	if s.Health != "" {
		m["health"] = s.Health
	}
	return json.Marshal(m)
}

// UnmarshalJSON captures unknown keys into the embedded Extra bag.
func (s *StandardizedSource) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Active bool   `json:"active"`
		Health Health `json:"health,omitempty"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	var raw RawSourceConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw.Extra, "active")
	delete(raw.Extra, "health")
	if len(raw.Extra) == 0 {
		raw.Extra = nil
	}
	s.RawSourceConfig = raw
	s.Active = envelope.Active
	s.Health = envelope.Health
	return nil
}

// QualityCheckResult is the outcome of probing one URL in one run.
type QualityCheckResult struct {
	URL          string `json:"url"`
	ResponseTime int64  `json:"responseTime"` // milliseconds, dispatch to settle
	IsAccessible bool   `json:"isAccessible"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Error        string `json:"error,omitempty"`
}

// QualityDistribution buckets sources by their carried-over quality score.
type QualityDistribution struct {
	High   int `json:"high"`   // score >= 80
	Medium int `json:"medium"` // 40 <= score < 80
	Low    int `json:"low"`    // score < 40 (absent counts as 0)
}

// Stats aggregates one orchestration run for reporting.
type Stats struct {
	Total               int                 `json:"total"`
	ByRegistry          map[string]int      `json:"byRegistry"`
	QualityDistribution QualityDistribution `json:"qualityDistribution"`
}

// OrchestrationResult is the full output of one orchestration run.
// SnapshotErr records a best-effort snapshot write failure without failing
// the run; callers that care can inspect it, everyone else ignores it.
type OrchestrationResult struct {
	RunID   string               `json:"runId"`
	Sources []StandardizedSource `json:"sources"`
	Stats   Stats                `json:"stats"`

	SnapshotErr error `json:"-"`
}

// Add classifies a quality score into the reporting buckets.
func (d *QualityDistribution) Add(score int) {
	switch {
	case score >= 80:
		d.High++
	case score >= 40:
		d.Medium++
	default:
		d.Low++
	}
}
