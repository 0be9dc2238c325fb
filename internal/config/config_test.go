package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetListenAddress())
	assert.Equal(t, "data", cfg.GetDataDir())
	assert.True(t, cfg.GetSnapshotEnabled())
	assert.NotEmpty(t, cfg.GetRegistries())
	assert.Equal(t, 30*time.Second, cfg.Crawler.GetFetchTimeout())
	assert.Equal(t, 5*time.Second, cfg.Crawler.GetProbeTimeout())
	assert.Equal(t, time.Second, cfg.Crawler.GetRegistryDelay())
	assert.Equal(t, 5, cfg.Crawler.GetProbeSampleSize())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
listenAddress: "127.0.0.1:9090"
dataDir: /var/lib/moontv-sync
snapshotEnabled: false
registries:
  - name: my-registry
    url: https://example.com/list.m3u
    type: m3u
    category: iptv
    enabled: true
crawler:
  fetchTimeout: 10s
  probeTimeout: 2s
  registryDelay: 500ms
  probeSampleSize: 3
`)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.GetListenAddress())
	assert.Equal(t, "/var/lib/moontv-sync", cfg.GetDataDir())
	assert.False(t, cfg.GetSnapshotEnabled())

	regs := cfg.GetRegistries()
	require.Len(t, regs, 1)
	assert.Equal(t, "my-registry", regs[0].Name)
	assert.True(t, regs[0].Enabled)

	assert.Equal(t, 10*time.Second, cfg.Crawler.GetFetchTimeout())
	assert.Equal(t, 2*time.Second, cfg.Crawler.GetProbeTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.GetRegistryDelay())
	assert.Equal(t, 3, cfg.Crawler.GetProbeSampleSize())
}

func TestLoadConfigZeroSampleSizeIsRespected(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
crawler:
  probeSampleSize: 0
`)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)
	assert.Zero(t, cfg.Crawler.GetProbeSampleSize())
}

func TestLoadConfigEmptyRegistriesFallsBackToCatalog(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `listenAddress: ":9000"`)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.GetRegistries())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "registry missing name",
			content: `
registries:
  - url: https://example.com/a.m3u
    type: m3u
`,
			wantErr: "name is required",
		},
		{
			name: "duplicate registry name",
			content: `
registries:
  - name: dup
    url: https://example.com/a.m3u
    type: m3u
  - name: dup
    url: https://example.com/b.m3u
    type: m3u
`,
			wantErr: "duplicate registry name",
		},
		{
			name: "registry missing url",
			content: `
registries:
  - name: broken
    type: m3u
`,
			wantErr: "url is required",
		},
		{
			name: "registry relative url",
			content: `
registries:
  - name: broken
    url: lists/index.m3u
    type: m3u
`,
			wantErr: "must be absolute",
		},
		{
			name: "registry missing type",
			content: `
registries:
  - name: broken
    url: https://example.com/a.m3u
`,
			wantErr: "type is required",
		},
		{
			name: "registry unknown type",
			content: `
registries:
  - name: broken
    url: https://example.com/a.m3u
    type: m3u8
`,
			wantErr: "unknown type",
		},
		{
			name: "bad duration",
			content: `
crawler:
  fetchTimeout: soon
`,
			wantErr: "valid duration",
		},
		{
			name: "negative duration",
			content: `
crawler:
  registryDelay: -1s
`,
			wantErr: "must be positive",
		},
		{
			name: "negative sample size",
			content: `
crawler:
  probeSampleSize: -1
`,
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.content)
			_, err := LoadConfig(WithConfigPath(path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithConfigPathRejectsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestWithConfigPathRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(""))
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "listenAddress: [unclosed")
	_, err := LoadConfig(WithConfigPath(path))
	assert.Error(t, err)
}
