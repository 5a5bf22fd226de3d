// internal/service/scoring/filter.go

package scoring

import (
	"campwatch/internal/domain/camp"
)

// FilterBySentiment keeps the matches whose keyword polarity is satisfied
// by the text's sentiment label:
//   - "any" keywords always pass
//   - "positive"/"negative" keywords pass only on an exact label match;
//     an absent label, or a "neutral"/"mixed"/opposite label, drops them
func FilterBySentiment(matches []Match, sentiment *string) []Match {
	var kept []Match
	for _, m := range matches {
		if m.Keyword.ExpectedSentiment == camp.SentimentAny {
			kept = append(kept, m)
			continue
		}
		if sentiment != nil && *sentiment == m.Keyword.ExpectedSentiment {
			kept = append(kept, m)
		}
	}
	return kept
}

// ComputeScore sums weight x count over the given matches.
func ComputeScore(matches []Match) float64 {
	var score float64
	for _, m := range matches {
		score += m.Keyword.Weight * float64(m.Count)
	}
	return score
}
