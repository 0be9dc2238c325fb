package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawSourceConfigRoundTripPreservesExtraFields(t *testing.T) {
	t.Parallel()

	in := []byte(`{"id":"foo","url":"https://douban.com","someProp":42,"nested":{"a":"b"}}`)

	var raw RawSourceConfig
	require.NoError(t, json.Unmarshal(in, &raw))

	assert.Equal(t, "foo", raw.ID)
	assert.Equal(t, "https://douban.com", raw.URL)
	assert.Equal(t, float64(42), raw.Extra["someProp"])

	out, err := json.Marshal(raw)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, float64(42), m["someProp"])
	assert.Equal(t, map[string]any{"a": "b"}, m["nested"])
}

func TestRawSourceConfigOmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(RawSourceConfig{ID: "x", URL: "https://example.com"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Len(t, m, 2)
	assert.Contains(t, m, "id")
	assert.Contains(t, m, "url")
}

func TestStandardizedSourceMarshalIncludesActiveAndHealth(t *testing.T) {
	t.Parallel()

	s := StandardizedSource{
		RawSourceConfig: RawSourceConfig{
			ID:       "s1",
			URL:      "https://example.com/live.m3u8",
			Provider: "iptv-org",
			Extra:    map[string]any{"someProp": "kept"},
		},
		Active: true,
		Health: HealthHealthy,
	}

	out, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, true, m["active"])
	assert.Equal(t, "healthy", m["health"])
	assert.Equal(t, "kept", m["someProp"])

	var back StandardizedSource
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, s.ID, back.ID)
	assert.True(t, back.Active)
	assert.Equal(t, HealthHealthy, back.Health)
	assert.Equal(t, "kept", back.Extra["someProp"])
	assert.NotContains(t, back.Extra, "active")
}

func TestCloneDoesNotAliasExtra(t *testing.T) {
	t.Parallel()

	orig := RawSourceConfig{ID: "a", URL: "u", Extra: map[string]any{"k": "v"}}
	cp := orig.Clone()
	cp.Extra["k"] = "changed"

	assert.Equal(t, "v", orig.Extra["k"])
}

func TestQualityDistributionBuckets(t *testing.T) {
	t.Parallel()

	var d QualityDistribution
	for _, score := range []int{100, 80, 79, 40, 39, 0} {
		d.Add(score)
	}

	assert.Equal(t, 2, d.High)
	assert.Equal(t, 2, d.Medium)
	assert.Equal(t, 2, d.Low)
}

func TestDefaultSourcesHaveUniqueIDsAndValidURLs(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, s := range DefaultSources() {
		require.NotEmpty(t, s.ID)
		require.Regexp(t, `^https?://`, s.URL)
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}
