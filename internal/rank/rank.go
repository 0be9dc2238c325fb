// Package rank merges crawled records across registries: it deduplicates by
// canonical URL, computes a composite quality score and sorts the result.
// Downstream consumers treat list order as a ranking signal, so the sort is
// stable and the scoring formula must not drift.
package rank

import (
	"sort"
	"time"

	"github.com/godlockin/moontv-sync/internal/source"
)

// Score components. Popularity contributes at most maxPopularityBonus.
const (
	accessibilityBonus = 50
	popularityWeight   = 5
	maxPopularityBonus = 20
)

// DedupeAndScore collapses duplicate URLs (first seen wins), scores each
// surviving record from its probe result and cross-registry popularity, and
// returns the records sorted by score descending. Deterministic given its
// inputs; ties keep their relative input order.
func DedupeAndScore(sources []source.RawSourceConfig, quality map[string]source.QualityCheckResult) []source.RawSourceConfig {
	// Popularity counts display names across the entire unmerged input:
	// an approximation of how many independent registries advertise the
	// same channel. Dropped duplicates still contribute here.
	popularity := make(map[string]int, len(sources))
	for _, s := range sources {
		popularity[popularityKey(s)]++
	}

	seen := make(map[string]bool, len(sources))
	out := make([]source.RawSourceConfig, 0, len(sources))
	now := time.Now()
	for _, s := range sources {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true

		scored := s.Clone()
		scored.QualityScore = score(quality, s.URL, popularity[popularityKey(s)])
		if _, ok := quality[s.URL]; ok {
			checked := now
			scored.CheckedAt = &checked
		}
		out = append(out, scored)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualityScore > out[j].QualityScore
	})
	return out
}

func popularityKey(s source.RawSourceConfig) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// score reproduces the composite formula exactly: accessibility bonus,
// latency bonus, capped popularity bonus. Maximum attainable is 100.
func score(quality map[string]source.QualityCheckResult, url string, popularity int) int {
	total := 0
	if q, ok := quality[url]; ok {
		if q.IsAccessible {
			total += accessibilityBonus
		}
		total += latencyBonus(q.ResponseTime)
	}
	pop := popularity * popularityWeight
	if pop > maxPopularityBonus {
		pop = maxPopularityBonus
	}
	return total + pop
}

func latencyBonus(responseTimeMs int64) int {
	switch {
	case responseTimeMs < 1000:
		return 30
	case responseTimeMs < 3000:
		return 20
	case responseTimeMs < 5000:
		return 10
	default:
		return 0
	}
}
