// internal/service/sentiment/prompt_test.go

package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
)

func TestBuildTweetPrompt(t *testing.T) {
	tweets := []account.Tweet{
		{ID: 101, Text: "AI is great"},
		{ID: 102, Text: strings.Repeat("x", 600)},
	}

	prompt := buildTweetPrompt(tweets, nil, nil)

	assert.Contains(t, prompt, "[1] (ID:101) AI is great")
	assert.Contains(t, prompt, "[2] (ID:102) "+strings.Repeat("x", maxTextLength))
	assert.NotContains(t, prompt, strings.Repeat("x", maxTextLength+1))
	assert.Contains(t, prompt, "general sentiment toward AI/technology")
}

func TestBuildTweetPromptWithCamp(t *testing.T) {
	c := &camp.Camp{Name: "AI Optimists", Description: "People bullish on AI"}
	keywords := []camp.Keyword{{Term: "AGI"}, {Term: "accelerate"}}

	prompt := buildTweetPrompt([]account.Tweet{{ID: 1, Text: "hi"}}, c, keywords)

	assert.Contains(t, prompt, "Topic/Camp: AI Optimists")
	assert.Contains(t, prompt, "Description: People bullish on AI")
	assert.Contains(t, prompt, "AGI, accelerate")
}

func TestBuildTweetPromptEmptyDescription(t *testing.T) {
	c := &camp.Camp{Name: "Skeptics"}

	prompt := buildTweetPrompt([]account.Tweet{{ID: 1, Text: "hi"}}, c, nil)

	assert.Contains(t, prompt, "Description: N/A")
}

func TestBuildBioPromptSkipsEmptyBios(t *testing.T) {
	accounts := []account.Account{
		{ID: 1, Username: "empty"},
		{ID: 2, Username: "full", Description: "building AGI"},
	}

	prompt := buildBioPrompt(accounts)

	assert.NotContains(t, prompt, "(ID:1)")
	assert.Contains(t, prompt, "[2] (ID:2) building AGI")
}
