// Package registry holds the static catalog of known external playlist
// registries. The catalog is immutable after process start; runs read it,
// never write it.
package registry

// Playlist format tags understood by the crawler.
const (
	// TypeM3U marks registries publishing extended M3U playlists.
	TypeM3U = "m3u"
)

// Registry describes one external registry endpoint. The crawler reads
// Name, URL, Type and Enabled; Category is reporting metadata only.
type Registry struct {
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Type     string `yaml:"type" json:"type"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Enabled  bool   `yaml:"enabled" json:"enabled"`
}

// Catalog returns the built-in registry list. Entries are reproduced
// verbatim from the upstream catalog; interoperability tests depend on the
// exact name/url/type/enabled values.
func Catalog() []Registry {
	return []Registry{
		{
			Name:     "video-source-registry",
			URL:      "https://raw.githubusercontent.com/fanmingming/live/main/tv/m3u/global.m3u",
			Type:     TypeM3U,
			Category: "iptv",
			Enabled:  true,
		},
		{
			Name:     "iptv-org",
			URL:      "https://iptv-org.github.io/iptv/index.m3u",
			Type:     TypeM3U,
			Category: "iptv",
			Enabled:  true,
		},
	}
}

// Enabled filters a registry list down to the entries the crawler should
// visit: enabled, with a format tag it knows how to parse.
func Enabled(regs []Registry) []Registry {
	out := make([]Registry, 0, len(regs))
	for _, r := range regs {
		if !r.Enabled || r.Type != TypeM3U {
			continue
		}
		out = append(out, r)
	}
	return out
}
