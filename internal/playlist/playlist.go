// Package playlist parses external registry playlists into raw source
// records. Parsing is pure: no I/O, no retries, malformed entries are
// silently dropped rather than surfaced as errors.
package playlist

import (
	"bufio"
	"log/slog"
	"strconv"
	"strings"

	"github.com/godlockin/moontv-sync/internal/source"
)

const extinfMarker = "#EXTINF:"

// Parse turns raw playlist content into raw source records. registryLabel
// becomes the provider tag and the prefix of each synthetic id. Formats the
// parser does not understand yield an empty slice, never an error.
func Parse(format, content, registryLabel string) []source.RawSourceConfig {
	switch format {
	case "m3u":
		return parseM3U(content, registryLabel)
	default:
		return nil
	}
}

// parseM3U scans lines pairing each #EXTINF metadata line with the next URL
// line. A URL line with no pending channel name is skipped; this silent-drop
// policy matches the upstream registries' tolerance for sloppy playlists.
func parseM3U(content, registryLabel string) []source.RawSourceConfig {
	var out []source.RawSourceConfig

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(nil, 1<<20)

	var pendingName, pendingGroup string
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, extinfMarker) {
			pendingName, pendingGroup = parseEXTINF(line)
			continue
		}
		if !strings.HasPrefix(line, "http") {
			continue
		}
		if pendingName == "" {
			continue
		}
		n++
		note := pendingName
		if pendingGroup != "" {
			note = pendingGroup + ": " + pendingName
		}
		out = append(out, source.RawSourceConfig{
			ID:       registryLabel + "_" + strconv.Itoa(n),
			URL:      line,
			Name:     pendingName,
			Note:     note,
			Region:   Classify(pendingName, pendingGroup),
			Provider: registryLabel,
		})
		pendingName, pendingGroup = "", ""
	}
	// A scan error (a line over the buffer cap) stops the scanner, dropping
	// everything after the offending line. Keep what was parsed, but say so.
	if err := sc.Err(); err != nil {
		slog.Warn("playlist scan stopped early, remaining lines dropped",
			"registry", registryLabel, "parsed", len(out), "error", err)
	}
	return out
}

// parseEXTINF extracts the display name and group tag from a metadata line.
// Name comes from the tvg-name attribute when present, otherwise from the
// free text after the last comma. Group comes from group-title or stays empty.
func parseEXTINF(line string) (name, group string) {
	name = attr(line, `tvg-name="`)
	if name == "" {
		if i := strings.LastIndex(line, ","); i >= 0 {
			name = strings.TrimSpace(line[i+1:])
		}
	}
	group = attr(line, `group-title="`)
	return name, group
}

func attr(line, prefix string) string {
	i := strings.Index(line, prefix)
	if i < 0 {
		return ""
	}
	rest := line[i+len(prefix):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:j])
}
