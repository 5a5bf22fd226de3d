// internal/service/scoring/filter_test.go

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campwatch/internal/domain/camp"
)

func strPtr(s string) *string { return &s }

func TestFilterBySentiment(t *testing.T) {
	anyMatch := Match{Keyword: camp.Keyword{Term: "AI", ExpectedSentiment: camp.SentimentAny}, Count: 1}
	positiveMatch := Match{Keyword: camp.Keyword{Term: "AI", ExpectedSentiment: camp.SentimentPositive}, Count: 1}
	negativeMatch := Match{Keyword: camp.Keyword{Term: "AI", ExpectedSentiment: camp.SentimentNegative}, Count: 1}

	tests := []struct {
		name      string
		matches   []Match
		sentiment *string
		want      int
	}{
		{"any keyword with no label", []Match{anyMatch}, nil, 1},
		{"any keyword with positive label", []Match{anyMatch}, strPtr(camp.SentimentPositive), 1},
		{"positive keyword with matching label", []Match{positiveMatch}, strPtr(camp.SentimentPositive), 1},
		{"positive keyword with no label", []Match{positiveMatch}, nil, 0},
		{"positive keyword with negative label", []Match{positiveMatch}, strPtr(camp.SentimentNegative), 0},
		{"positive keyword with neutral label", []Match{positiveMatch}, strPtr(camp.SentimentNeutral), 0},
		{"positive keyword with mixed label", []Match{positiveMatch}, strPtr(camp.SentimentMixed), 0},
		{"negative keyword with matching label", []Match{negativeMatch}, strPtr(camp.SentimentNegative), 1},
		{"mixed batch keeps only satisfied", []Match{anyMatch, positiveMatch, negativeMatch}, strPtr(camp.SentimentNegative), 2},
		{"no matches", nil, strPtr(camp.SentimentPositive), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := FilterBySentiment(tt.matches, tt.sentiment)
			assert.Len(t, kept, tt.want)
		})
	}
}

func TestComputeScore(t *testing.T) {
	matches := []Match{
		{Keyword: camp.Keyword{Term: "AI", Weight: 1.5}, Count: 2},
		{Keyword: camp.Keyword{Term: "neural", Weight: 0.5}, Count: 3},
	}

	assert.InDelta(t, 4.5, ComputeScore(matches), 1e-9)
	assert.Zero(t, ComputeScore(nil))
}
