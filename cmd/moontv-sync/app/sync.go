package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/godlockin/moontv-sync/internal/source"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync and print the result",
	Long: `Run a single sync against the configured registries and print the
resulting source report as JSON on stdout. Discovered sources are merged
into the admin configuration like a server-triggered run.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	syncCmd.Flags().Bool("full", false, "Include the full source list in the output, not just stats")
}

func runSync(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer p.close()

	ctx := context.Background()
	result, err := p.coordinator.Trigger(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if result.SnapshotErr != nil {
		slog.Warn("snapshot not persisted", "error", result.SnapshotErr)
	}

	if added, err := p.store.MergeSources(ctx, result.Sources); err != nil {
		slog.Warn("merging sources into admin config failed", "error", err)
	} else if added > 0 {
		slog.Info("admin config updated", "added", added)
	}

	report := any(result)
	if !full {
		report = struct {
			RunID string       `json:"runId"`
			Stats source.Stats `json:"stats"`
		}{RunID: result.RunID, Stats: result.Stats}
	}

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(output))
	return nil
}
