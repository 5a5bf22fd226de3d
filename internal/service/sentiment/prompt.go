// internal/service/sentiment/prompt.go

package sentiment

import (
	"fmt"
	"strings"

	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
)

// maxPromptKeywords caps how many camp keyword terms are listed as topic
// context in a prompt.
const maxPromptKeywords = 20

// buildTweetPrompt serializes a batch of tweets into one analysis prompt.
// When a camp is given, its name, description and keywords anchor the
// sentiment judgment to that topic.
func buildTweetPrompt(tweets []account.Tweet, c *camp.Camp, keywords []camp.Keyword) string {
	var topicContext string
	if c != nil {
		terms := make([]string, 0, maxPromptKeywords)
		for _, kw := range keywords {
			terms = append(terms, kw.Term)
			if len(terms) >= maxPromptKeywords {
				break
			}
		}

		description := c.Description
		if description == "" {
			description = "N/A"
		}

		topicContext = fmt.Sprintf(`
Topic/Camp: %s
Description: %s
Keywords associated with this camp: %s

Analyze each tweet's sentiment TOWARD this topic. For example:
- "I love AI" about AI = positive
- "AI is ruining everything" about AI = negative
- "AI exists" about AI = neutral
- "I love how AI is destroying art" about AI = mixed (sarcasm/complex)
`, c.Name, description, strings.Join(terms, ", "))
	} else {
		topicContext = `
Analyze each tweet's general sentiment toward AI/technology topics.
`
	}

	lines := make([]string, 0, len(tweets))
	for i, t := range tweets {
		lines = append(lines, fmt.Sprintf("[%d] (ID:%d) %s", i+1, t.ID, truncate(t.Text, maxTextLength)))
	}

	return fmt.Sprintf(`You are analyzing tweets for sentiment toward a specific topic.

%s

For each tweet, determine:
1. sentiment: "positive", "negative", "neutral", or "mixed"
2. confidence: 0.0 to 1.0 (how confident you are)

Tweets to analyze:
%s

Respond with a JSON array of objects. Each object must have:
- "id": the tweet ID (number after "ID:")
- "sentiment": one of "positive", "negative", "neutral", "mixed"
- "confidence": number between 0.0 and 1.0

Example response:
[
  {"id": 123456, "sentiment": "positive", "confidence": 0.9},
  {"id": 789012, "sentiment": "negative", "confidence": 0.85}
]

Return ONLY the JSON array, no other text.`, topicContext, strings.Join(lines, "\n"))
}

// buildBioPrompt serializes a batch of account bios into one analysis
// prompt. Accounts with empty bios are skipped.
func buildBioPrompt(accounts []account.Account) string {
	lines := make([]string, 0, len(accounts))
	for i, a := range accounts {
		if a.Description == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%d] (ID:%d) %s", i+1, a.ID, truncate(a.Description, maxTextLength)))
	}

	return fmt.Sprintf(`You are analyzing Twitter/X user bios for sentiment toward AI/technology topics.

For each bio, determine the author's sentiment TOWARD AI/technology:
- "positive": enthusiastic, optimistic, building with AI, pro-AI
- "negative": critical, concerned, skeptical, anti-AI
- "neutral": just mentions AI without clear stance
- "mixed": contains both positive and negative views

Bios to analyze:
%s

Respond with a JSON array. Each object must have:
- "id": the account ID (number after "ID:")
- "sentiment": one of "positive", "negative", "neutral", "mixed"
- "confidence": number between 0.0 and 1.0

Example response:
[
  {"id": 123456, "sentiment": "positive", "confidence": 0.9},
  {"id": 789012, "sentiment": "negative", "confidence": 0.85}
]

Return ONLY the JSON array, no other text.`, strings.Join(lines, "\n"))
}

// truncate cuts s at n bytes without splitting it mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
