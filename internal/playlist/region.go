package playlist

import "strings"

// RegionGlobal is the fallback region for channels no rule recognizes.
const RegionGlobal = "global"

// regionRule maps a keyword group to a region code. Rules are evaluated in
// order and the first hit wins, so country-specific groups must stay ahead
// of broader ones. Append new groups at the end; reordering existing groups
// changes classifications and needs re-validation.
type regionRule struct {
	region   string
	keywords []string
}

var regionRules = []regionRule{
	{"CN", []string{"cctv", "cgtn", "央视", "卫视", "中国", "china"}},
	{"HK", []string{"tvb", "翡翠", "鳳凰", "凤凰", "香港", "hong kong"}},
	{"TW", []string{"民視", "中天", "台灣", "台湾", "taiwan"}},
	{"JP", []string{"nhk", "日本", "japan"}},
	{"KR", []string{"kbs", "mbc", "한국", "korea"}},
	{"US", []string{"cnn", "nbc", "abc", "cbs", "fox", "espn", "usa"}},
	{"UK", []string{"bbc", "itv", "sky news", "channel 4"}},
}

// Classify maps a channel's display name and group tag to a region code,
// defaulting to RegionGlobal when no rule matches.
func Classify(name, group string) string {
	haystack := strings.ToLower(name + " " + group)
	for _, rule := range regionRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.region
			}
		}
	}
	return RegionGlobal
}
