package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godlockin/moontv-sync/internal/registry"
	"github.com/godlockin/moontv-sync/internal/source"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-name="CCTV1" group-title="央视",CCTV1
http://example.com/cctv1.m3u8
#EXTINF:-1 tvg-name="CCTV2" group-title="央视",CCTV2
http://example.com/cctv2.m3u8
`

// staticProber returns a fixed quality map regardless of input.
type staticProber struct {
	results map[string]source.QualityCheckResult
	calls   int
}

func (p *staticProber) Probe(_ context.Context, _ []string, _ int) map[string]source.QualityCheckResult {
	p.calls++
	return p.results
}

func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func testRegistry(name, url string) registry.Registry {
	return registry.Registry{Name: name, URL: url, Type: registry.TypeM3U, Category: "iptv", Enabled: true}
}

func TestDiscoverEndToEnd(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	c := New(
		[]registry.Registry{testRegistry("iptv", server.URL)},
		WithProber(&staticProber{}),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "iptv_1", records[0].ID)
	assert.Equal(t, "iptv_2", records[1].ID)
	assert.Equal(t, "CCTV1", records[0].Name)
	assert.Equal(t, "央视: CCTV1", records[0].Note)
	assert.Equal(t, "CN", records[0].Region)
	assert.Equal(t, "iptv", records[0].Provider)
	assert.NotEqual(t, records[0].URL, records[1].URL)
}

func TestDiscoverSkipsFailingRegistry(t *testing.T) {
	t.Parallel()

	broken := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	healthy := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePlaylist))
	}))
	defer healthy.Close()

	c := New(
		[]registry.Registry{
			testRegistry("broken", broken.URL),
			testRegistry("healthy", healthy.URL),
		},
		WithProber(&staticProber{}),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "healthy", records[0].Provider)
}

func TestDiscoverSkipsDisabledAndUnknownTypeRegistries(t *testing.T) {
	t.Parallel()

	var hits int
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	disabled := testRegistry("disabled", server.URL)
	disabled.Enabled = false
	unknown := testRegistry("unknown", server.URL)
	unknown.Type = "rss"

	c := New(
		[]registry.Registry{disabled, unknown},
		WithProber(&staticProber{}),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, hits)
}

func TestDiscoverCollapsesDuplicateURLsAcrossRegistries(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("#EXTINF:-1,CCTV1\nhttp://example.com/shared.m3u8\n"))
	})
	first := newTestServer(handler)
	defer first.Close()
	second := newTestServer(handler)
	defer second.Close()

	c := New(
		[]registry.Registry{
			testRegistry("first", first.URL),
			testRegistry("second", second.URL),
		},
		WithProber(&staticProber{}),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	// First registry wins the duplicate; both appearances still count
	// toward the popularity component of the score.
	assert.Equal(t, "first", records[0].Provider)
	assert.Equal(t, 10, records[0].QualityScore)
}

func TestDiscoverCollapsesDuplicateURLsWithinOnePlaylist(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("#EXTINF:-1,CCTV1\nhttp://example.com/shared.m3u8\n" +
			"#EXTINF:-1,CCTV1\nhttp://example.com/shared.m3u8\n"))
	}))
	defer server.Close()

	c := New(
		[]registry.Registry{testRegistry("iptv", server.URL)},
		WithProber(&staticProber{}),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "iptv_1", records[0].ID)
	// Popularity of 2 from the duplicate contributes a bonus of 10.
	assert.Equal(t, 10, records[0].QualityScore)
}

func TestDiscoverAppliesProbeResults(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("#EXTINF:-1,CCTV1\nhttp://example.com/a.m3u8\n"))
	}))
	defer server.Close()

	prober := &staticProber{results: map[string]source.QualityCheckResult{
		"http://example.com/a.m3u8": {
			URL:          "http://example.com/a.m3u8",
			IsAccessible: true,
			ResponseTime: 120,
		},
	}}

	c := New(
		[]registry.Registry{testRegistry("iptv", server.URL)},
		WithProber(prober),
		WithRegistryDelay(time.Millisecond),
	)

	records, err := c.Discover(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, 85, records[0].QualityScore)
	assert.NotNil(t, records[0].CheckedAt)
}

func TestDiscoverPausesAfterRegistryCompletes(t *testing.T) {
	t.Parallel()

	const (
		delay       = 80 * time.Millisecond
		handlerTime = 120 * time.Millisecond
	)

	var mu sync.Mutex
	var firstDone, secondStart time.Time

	first := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Outlast the delay so start-spacing alone would leave no gap.
		time.Sleep(handlerTime)
		w.Write([]byte(samplePlaylist))
		mu.Lock()
		firstDone = time.Now()
		mu.Unlock()
	}))
	defer first.Close()
	second := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		secondStart = time.Now()
		mu.Unlock()
		w.Write([]byte(samplePlaylist))
	}))
	defer second.Close()

	c := New(
		[]registry.Registry{
			testRegistry("first", first.URL),
			testRegistry("second", second.URL),
		},
		WithProber(&staticProber{}),
		WithRegistryDelay(delay),
	)

	_, err := c.Discover(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.False(t, firstDone.IsZero())
	require.False(t, secondStart.IsZero())
	assert.GreaterOrEqual(t, secondStart.Sub(firstDone), delay)
}

func TestDiscoverHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(samplePlaylist))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(
		[]registry.Registry{testRegistry("iptv", server.URL)},
		WithProber(&staticProber{}),
	)

	_, err := c.Discover(ctx)
	assert.Error(t, err)
}
