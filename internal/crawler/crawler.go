// Package crawler walks the registry catalog, fetches each enabled
// registry's playlist, probes a sample of the discovered endpoints and
// returns deduplicated, scored records. Registries are visited serially
// with a pacing delay after each one completes.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/godlockin/moontv-sync/internal/httpclient"
	"github.com/godlockin/moontv-sync/internal/playlist"
	"github.com/godlockin/moontv-sync/internal/probe"
	"github.com/godlockin/moontv-sync/internal/rank"
	"github.com/godlockin/moontv-sync/internal/registry"
	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/telemetry"
)

// Defaults for crawl tuning; overridable through options.
const (
	DefaultFetchTimeout    = 30 * time.Second
	DefaultRegistryDelay   = time.Second
	DefaultProbeSampleSize = 5

	// maxPlaylistBytes caps a single registry response. Upstream catalogs
	// run to a few megabytes; anything past this is truncated.
	maxPlaylistBytes = 32 << 20
)

// Prober checks a sample of URLs and reports per-URL quality.
type Prober interface {
	Probe(ctx context.Context, urls []string, sampleLimit int) map[string]source.QualityCheckResult
}

// Crawler discovers raw sources from the configured registries.
type Crawler struct {
	registries   []registry.Registry
	client       *http.Client
	prober       Prober
	fetchTimeout time.Duration
	sampleSize   int
	delay        time.Duration
	logger       *slog.Logger
	metrics      *telemetry.Metrics
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithHTTPClient overrides the playlist fetch client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Crawler) {
		c.client = client
	}
}

// WithProber overrides the quality prober.
func WithProber(p Prober) Option {
	return func(c *Crawler) {
		c.prober = p
	}
}

// WithFetchTimeout bounds a single registry fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithRegistryDelay sets the pause observed after each registry completes.
func WithRegistryDelay(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithProbeSampleSize sets how many discovered URLs are probed per registry.
func WithProbeSampleSize(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.sampleSize = n
		}
	}
}

// WithLogger sets the crawl logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records discovery counts on the given collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// New creates a Crawler over the given registry list.
func New(registries []registry.Registry, opts ...Option) *Crawler {
	c := &Crawler{
		registries:   registries,
		fetchTimeout: DefaultFetchTimeout,
		sampleSize:   DefaultProbeSampleSize,
		delay:        DefaultRegistryDelay,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpclient.New(c.fetchTimeout)
	}
	if c.prober == nil {
		c.prober = probe.New(nil, probe.DefaultTimeout)
	}
	return c
}

// Discover visits every enabled registry in catalog order, parses its
// playlist, probes a per-registry sample of the discovered URLs, and
// returns the combined records deduplicated and scored. A registry that
// fails to fetch contributes nothing and the crawl continues; the only
// error returned is context cancellation.
func (c *Crawler) Discover(ctx context.Context) ([]source.RawSourceConfig, error) {
	var all []source.RawSourceConfig
	quality := make(map[string]source.QualityCheckResult)

	for i, reg := range registry.Enabled(c.registries) {
		// The pause runs after the previous registry's full cycle (fetch,
		// parse, probe) has settled, so upstreams see a real gap even when
		// a cycle outlasts the configured delay.
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}

		content, err := c.fetch(ctx, reg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("registry fetch failed, skipping",
				"registry", reg.Name, "url", reg.URL, "error", err)
			continue
		}

		records := playlist.Parse(reg.Type, content, reg.Name)
		c.logger.Info("registry crawled",
			"registry", reg.Name, "records", len(records))
		if c.metrics != nil {
			c.metrics.SourcesDiscovered.WithLabelValues(reg.Name).Add(float64(len(records)))
		}
		if len(records) == 0 {
			continue
		}

		urls := make([]string, 0, len(records))
		for _, rec := range records {
			urls = append(urls, rec.URL)
		}
		for u, q := range c.prober.Probe(ctx, urls, c.sampleSize) {
			quality[u] = q
		}

		all = append(all, records...)
	}

	return rank.DedupeAndScore(all, quality), nil
}

// pause waits out the inter-registry delay unless the run is cancelled.
func (c *Crawler) pause(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetch downloads one registry playlist with its own timeout.
func (c *Crawler) fetch(ctx context.Context, reg registry.Registry) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, reg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", reg.Name, err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", reg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpclient.NewHTTPError(resp.StatusCode, reg.URL, "unexpected registry response")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", reg.Name, err)
	}
	return string(body), nil
}
