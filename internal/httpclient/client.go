// Package httpclient provides the shared tuned HTTP client used by the
// crawler, the quality prober and the adapter health checks.
package httpclient

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a whole request including body read.
	DefaultTimeout = 30 * time.Second

	defaultIdleConnTimeout = 90 * time.Second
	maxIdleConnsPerHost    = 16
)

// UserAgent identifies this service to upstream registries.
const UserAgent = "MoonTV-Sync/1.0"

// New returns a client with the given timeout and a transport tuned for
// many small requests against a handful of hosts. A zero timeout falls back
// to DefaultTimeout.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     defaultIdleConnTimeout,
		},
	}
}
