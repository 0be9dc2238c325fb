package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleM3U = `#EXTM3U
#EXTINF:-1 tvg-name="CCTV1" group-title="央视",CCTV1
http://example.com/cctv1.m3u8
#EXTINF:-1 tvg-name="CCTV2",CCTV2
http://example.com/cctv2.m3u8`

func TestParseM3UBasic(t *testing.T) {
	t.Parallel()

	got := Parse("m3u", sampleM3U, "iptv")
	require.Len(t, got, 2)

	assert.Equal(t, "iptv_1", got[0].ID)
	assert.Equal(t, "http://example.com/cctv1.m3u8", got[0].URL)
	assert.Equal(t, "CCTV1", got[0].Name)
	assert.Equal(t, "央视: CCTV1", got[0].Note)
	assert.Equal(t, "CN", got[0].Region)
	assert.Equal(t, "iptv", got[0].Provider)

	assert.Equal(t, "iptv_2", got[1].ID)
	assert.Equal(t, "CCTV2", got[1].Name)
	assert.Equal(t, "CCTV2", got[1].Note)
}

func TestParseEveryRecordHasIDAndURL(t *testing.T) {
	t.Parallel()

	for _, rec := range Parse("m3u", sampleM3U, "reg") {
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.URL)
	}
}

func TestParseNameFallsBackToTrailingText(t *testing.T) {
	t.Parallel()

	content := "#EXTINF:-1 tvg-id=\"x.y\",Some Channel, The Best\nhttp://example.com/a.m3u8"
	got := Parse("m3u", content, "reg")
	require.Len(t, got, 1)
	// Last comma wins when no tvg-name attribute is present.
	assert.Equal(t, "The Best", got[0].Name)
}

func TestParseURLWithoutNameIsSkipped(t *testing.T) {
	t.Parallel()

	content := "http://example.com/orphan.m3u8\n#EXTINF:-1 tvg-name=\"A\",A\nhttp://example.com/a.m3u8"
	got := Parse("m3u", content, "reg")
	require.Len(t, got, 1)
	assert.Equal(t, "reg_1", got[0].ID)
	assert.Equal(t, "http://example.com/a.m3u8", got[0].URL)
}

func TestParseMalformedEXTINFDropsFollowingURL(t *testing.T) {
	t.Parallel()

	// No tvg-name and no comma: no extractable name, next URL is dropped.
	content := "#EXTINF:-1 tvg-id=\"z\"\nhttp://example.com/z.m3u8"
	got := Parse("m3u", content, "reg")
	assert.Empty(t, got)
}

func TestParseDuplicateURLsEmitTwoRecords(t *testing.T) {
	t.Parallel()

	content := "#EXTINF:-1 tvg-name=\"CCTV1\",CCTV1\nhttp://example.com/cctv.m3u8\n" +
		"#EXTINF:-1 tvg-name=\"CCTV1 Dup\",CCTV1 Dup\nhttp://example.com/cctv.m3u8"
	got := Parse("m3u", content, "reg")
	// The parser does not dedupe; that is the scoring engine's job.
	require.Len(t, got, 2)
	assert.Equal(t, got[0].URL, got[1].URL)
}

func TestParseOversizedLineKeepsRecordsParsedSoFar(t *testing.T) {
	t.Parallel()

	// A single line past the scanner's buffer cap stops the scan; records
	// before it survive, records after it are lost, and nothing panics.
	content := "#EXTINF:-1 tvg-name=\"A\",A\nhttp://example.com/a.m3u8\n" +
		"#EXTINF:-1," + strings.Repeat("x", (1<<20)+1) + "\n" +
		"#EXTINF:-1 tvg-name=\"B\",B\nhttp://example.com/b.m3u8"

	got := Parse("m3u", content, "reg")

	require.Len(t, got, 1)
	assert.Equal(t, "reg_1", got[0].ID)
	assert.Equal(t, "http://example.com/a.m3u8", got[0].URL)
}

func TestParseUnsupportedFormatYieldsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Parse("xtream", sampleM3U, "reg"))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		chName   string
		group    string
		expected string
	}{
		{name: "cctv is CN", chName: "CCTV1", group: "", expected: "CN"},
		{name: "group matches too", chName: "News", group: "中国", expected: "CN"},
		{name: "tvb is HK", chName: "TVB Jade", group: "", expected: "HK"},
		{name: "bbc is UK", chName: "BBC One", group: "", expected: "UK"},
		{name: "cnn is US", chName: "CNN International", group: "news", expected: "US"},
		{name: "case insensitive", chName: "cnn", group: "", expected: "US"},
		{name: "unknown defaults to global", chName: "Al Jazeera", group: "", expected: RegionGlobal},
		{name: "empty input defaults to global", chName: "", group: "", expected: RegionGlobal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Classify(tt.chName, tt.group))
		})
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	t.Parallel()

	// Name matches both CN (cctv) and US (fox via group); CN is checked first.
	assert.Equal(t, "CN", Classify("CCTV Fox", "fox"))
}
