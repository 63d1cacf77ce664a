package matching

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

const (
	// MaxResults caps the number of recommendations returned for a query.
	MaxResults = 10
	// tieBreakWindow is the compatibility difference under which the overall score decides the order.
	tieBreakWindow = 5.0
)

// Rank orders matches and returns at most limit of them (MaxResults when limit <= 0).
// Matches whose compatibility differs by no more than tieBreakWindow are ordered by overall score;
// otherwise compatibility decides. Remaining ties fall back to compatibility, then name.
// The input slice is not modified.
func Rank(matches []*ToolMatch, limit int) []*ToolMatch {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	ranked := slices.Clone(matches)

	// A fixed starting order keeps the result independent of catalog order.
	slices.SortStableFunc(ranked, func(a, b *ToolMatch) int {
		return strings.Compare(a.Name(), b.Name())
	})
	slices.SortStableFunc(ranked, compareMatches)

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func compareMatches(a, b *ToolMatch) int {
	if math.Abs(a.Score-b.Score) <= tieBreakWindow {
		if c := cmp.Compare(b.OverallScore, a.OverallScore); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(b.OverallScore, a.OverallScore); c != 0 {
		return c
	}
	return strings.Compare(a.Name(), b.Name())
}
