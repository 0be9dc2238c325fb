// Package probe issues lightweight existence checks against candidate
// source URLs and records latency and accessibility. Probes never return
// errors: a timeout or transport failure is itself a valid result.
package probe

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/godlockin/moontv-sync/internal/httpclient"
	"github.com/godlockin/moontv-sync/internal/source"
	"github.com/godlockin/moontv-sync/internal/telemetry"
)

// DefaultTimeout bounds a single probe, independent of the crawler's
// fetch timeout.
const DefaultTimeout = 5 * time.Second

// Prober checks URL accessibility with per-probe timeouts.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	metrics *telemetry.Metrics
}

// Option configures a Prober.
type Option func(*Prober)

// WithMetrics records probe durations on the given collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Prober) {
		p.metrics = m
	}
}

// New creates a Prober. A nil client gets a dedicated tuned client; a
// non-positive timeout falls back to DefaultTimeout.
func New(client *http.Client, timeout time.Duration, opts ...Option) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = httpclient.New(timeout)
	}
	p := &Prober{client: client, timeout: timeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks the first sampleLimit distinct URLs (in input order) and
// returns one result per probed URL. All probes run concurrently and the
// batch waits for every probe to settle; a failed probe is recorded, never
// propagated. Probing every discovered URL each run is deliberately avoided
// for cost reasons.
func (p *Prober) Probe(ctx context.Context, urls []string, sampleLimit int) map[string]source.QualityCheckResult {
	if sampleLimit <= 0 {
		return map[string]source.QualityCheckResult{}
	}

	sample := make([]string, 0, sampleLimit)
	seen := make(map[string]bool, sampleLimit)
	for _, u := range urls {
		if len(sample) == sampleLimit {
			break
		}
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		sample = append(sample, u)
	}

	results := make([]source.QualityCheckResult, len(sample))
	var g errgroup.Group
	for i, u := range sample {
		i, u := i, u
		g.Go(func() error {
			results[i] = p.probeOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	out := make(map[string]source.QualityCheckResult, len(results))
	for _, r := range results {
		out[r.URL] = r
	}
	return out
}

// probeOne issues a HEAD request (no body transfer) with its own timeout.
// ResponseTime covers dispatch to settle, including the error path.
func (p *Prober) probeOne(ctx context.Context, url string) source.QualityCheckResult {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result := source.QualityCheckResult{URL: url}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		result.ResponseTime = time.Since(start).Milliseconds()
		result.Error = err.Error()
		return result
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	result.ResponseTime = elapsed.Milliseconds()
	if p.metrics != nil {
		p.metrics.ProbeDuration.Observe(elapsed.Seconds())
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.IsAccessible = resp.StatusCode >= 200 && resp.StatusCode < 400
	return result
}
