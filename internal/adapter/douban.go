package adapter

import (
	"context"
	"strings"

	"github.com/godlockin/moontv-sync/internal/source"
)

// Douban handles Douban metadata sources. Douban endpoints reject
// unauthenticated automated requests, so the healthcheck is a trust
// assertion rather than a network call.
type Douban struct{}

// NewDouban creates the Douban adapter.
func NewDouban() *Douban {
	return &Douban{}
}

func (*Douban) Name() string {
	return "douban"
}

func (*Douban) Supports(raw source.RawSourceConfig) bool {
	return strings.Contains(raw.URL, "douban.com")
}

func (d *Douban) ToStandard(raw source.RawSourceConfig) source.StandardizedSource {
	std := source.StandardizedSource{
		RawSourceConfig: raw.Clone(),
		Active:          true,
		Health:          source.HealthUnknown,
	}
	std.Provider = d.Name()
	return std
}

// Healthcheck always reports healthy.
func (*Douban) Healthcheck(_ context.Context, _ source.StandardizedSource) bool {
	return true
}
