// internal/service/sentiment/parser.go

package sentiment

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"campwatch/internal/domain/camp"
)

const defaultConfidence = 0.8

type resultItem struct {
	ID         int64    `json:"id"`
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
}

// parseResults decodes the model's JSON array of {id, sentiment,
// confidence} objects. Code fences around the array are stripped and a
// missing confidence defaults to 0.8. Items with an unknown sentiment
// label are skipped.
func parseResults(content string, isBio bool) ([]camp.SentimentResult, error) {
	content = stripCodeFence(content)

	var items []resultItem
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, fmt.Errorf("decoding sentiment response: %w", err)
	}

	results := make([]camp.SentimentResult, 0, len(items))
	for _, item := range items {
		if !camp.ValidSentiment(item.Sentiment) {
			log.Printf("skipping result with invalid sentiment %q for id %d", item.Sentiment, item.ID)
			continue
		}

		confidence := defaultConfidence
		if item.Confidence != nil {
			confidence = *item.Confidence
		}

		results = append(results, camp.SentimentResult{
			ID:         item.ID,
			Sentiment:  item.Sentiment,
			Confidence: confidence,
			IsBio:      isBio,
		})
	}

	return results, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a "json" language tag.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	content = strings.TrimPrefix(content, "json")

	return strings.TrimSpace(content)
}
