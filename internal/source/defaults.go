package source

// DefaultSources returns the static default set merged into every
// orchestration run before the id-based dedupe. Kept deliberately small;
// discovered sources are expected to dominate.
func DefaultSources() []RawSourceConfig {
	return []RawSourceConfig{
		{
			ID:   "youtube-official",
			URL:  "https://www.youtube.com",
			Note: "Official YouTube main site",
		},
		{
			ID:     "bilibili-cn",
			URL:    "https://www.bilibili.com",
			Region: "CN",
		},
	}
}
