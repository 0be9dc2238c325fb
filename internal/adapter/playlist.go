package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/godlockin/moontv-sync/internal/httpclient"
	"github.com/godlockin/moontv-sync/internal/source"
)

// healthcheckTimeout bounds a single playlist liveness check.
const healthcheckTimeout = 5 * time.Second

// streamExtensions are URL path suffixes recognized as stream playlists or
// segments.
var streamExtensions = []string{".m3u8", ".m3u", ".ts"}

// Playlist is the catch-all adapter for stream records coming out of
// playlist crawls. It must be registered last.
type Playlist struct {
	client *http.Client
}

// NewPlaylist creates the playlist adapter. A nil client gets a dedicated
// tuned client.
func NewPlaylist(client *http.Client) *Playlist {
	if client == nil {
		client = httpclient.New(healthcheckTimeout)
	}
	return &Playlist{client: client}
}

func (*Playlist) Name() string {
	return "playlist"
}

// Supports recognizes records that carry a crawl provenance or whose URL
// path has a stream extension.
func (*Playlist) Supports(raw source.RawSourceConfig) bool {
	if raw.Provider != "" {
		return true
	}
	u, err := url.Parse(raw.URL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range streamExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (p *Playlist) ToStandard(raw source.RawSourceConfig) source.StandardizedSource {
	std := source.StandardizedSource{
		RawSourceConfig: raw.Clone(),
		Active:          true,
		Health:          source.HealthUnknown,
	}
	if std.Provider == "" {
		std.Provider = p.Name()
	}
	return std
}

// Healthcheck fetches the playlist URL and reports whether the origin
// answered with a success status. Stream endpoints commonly reject HEAD, so
// this uses GET and discards the body.
func (p *Playlist) Healthcheck(ctx context.Context, std source.StandardizedSource) bool {
	checkCtx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, std.URL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
