package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/godlockin/moontv-sync/internal/adapter"
	"github.com/godlockin/moontv-sync/internal/config"
	"github.com/godlockin/moontv-sync/internal/crawler"
	"github.com/godlockin/moontv-sync/internal/orchestrator"
	"github.com/godlockin/moontv-sync/internal/probe"
	"github.com/godlockin/moontv-sync/internal/snapshot"
	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/store"
	"github.com/godlockin/moontv-sync/internal/telemetry"
)

// configDBName is the admin config database file under the data directory.
const configDBName = "config.db"

// pipeline bundles everything a command needs to run syncs.
type pipeline struct {
	coordinator *orchestrator.Coordinator
	store       *store.Store
	registry    *prometheus.Registry
}

func (p *pipeline) close() {
	if p.store != nil {
		_ = p.store.Close()
	}
}

// loadConfig reads the optional --config flag.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.LoadConfig()
	}
	return config.LoadConfig(config.WithConfigPath(configPath))
}

// buildPipeline wires the full sync pipeline from configuration. Failures
// here are startup precondition failures and abort the command.
func buildPipeline(cfg *config.Config) (*pipeline, error) {
	if err := os.MkdirAll(cfg.GetDataDir(), 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.Open(filepath.Join(cfg.GetDataDir(), configDBName))
	if err != nil {
		return nil, fmt.Errorf("failed to open config store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	prober := probe.New(nil, cfg.Crawler.GetProbeTimeout(), probe.WithMetrics(metrics))
	crawl := crawler.New(cfg.GetRegistries(),
		crawler.WithProber(prober),
		crawler.WithFetchTimeout(cfg.Crawler.GetFetchTimeout()),
		crawler.WithRegistryDelay(cfg.Crawler.GetRegistryDelay()),
		crawler.WithProbeSampleSize(cfg.Crawler.GetProbeSampleSize()),
		crawler.WithMetrics(metrics),
	)

	opts := []orchestrator.Option{
		orchestrator.WithDefaults(source.DefaultSources()),
		orchestrator.WithMetrics(metrics),
	}
	if cfg.GetSnapshotEnabled() {
		opts = append(opts, orchestrator.WithSnapshotWriter(snapshot.NewFileWriter(cfg.GetDataDir())))
	}
	orch := orchestrator.New(crawl, adapter.DefaultRegistry(nil), opts...)

	return &pipeline{
		coordinator: orchestrator.NewCoordinator(orch, metrics),
		store:       st,
		registry:    registry,
	}, nil
}
