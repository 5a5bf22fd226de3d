// internal/service/sentiment/analyzer_test.go

package sentiment

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
)

type fakeStore struct {
	tweets []account.Tweet
	bios   []account.Account

	saved       []camp.SentimentResult
	saveErr     error
	total       int
	analyzed    int
	bySentiment map[string]int
}

func (s *fakeStore) ListUnanalyzedTweets(ctx context.Context) ([]account.Tweet, error) {
	return s.tweets, nil
}

func (s *fakeStore) ListUnanalyzedTweetsByIDs(ctx context.Context, ids []int64, limit int) ([]account.Tweet, error) {
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	var out []account.Tweet
	for _, t := range s.tweets {
		if idSet[t.ID] && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) ListUnanalyzedBios(ctx context.Context) ([]account.Account, error) {
	return s.bios, nil
}

func (s *fakeStore) SaveResults(ctx context.Context, results []camp.SentimentResult) (int, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.saved = append(s.saved, results...)
	return len(results), nil
}

func (s *fakeStore) CountTweets(ctx context.Context) (int, error)         { return s.total, nil }
func (s *fakeStore) CountAnalyzedTweets(ctx context.Context) (int, error) { return s.analyzed, nil }
func (s *fakeStore) CountBySentiment(ctx context.Context) (map[string]int, error) {
	return s.bySentiment, nil
}

type fakeCampStore struct {
	camp     *camp.Camp
	keywords []camp.Keyword
}

func (s *fakeCampStore) GetCamp(ctx context.Context, id int) (*camp.Camp, error) {
	return s.camp, nil
}

func (s *fakeCampStore) ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error) {
	return s.keywords, nil
}

func (s *fakeCampStore) ListAllKeywords(ctx context.Context) ([]camp.Keyword, error) {
	return s.keywords, nil
}

type fakeMatchStore struct {
	tweetIDs []int64
}

func (s *fakeMatchStore) ListTweetIDsByKeywords(ctx context.Context, keywordIDs []int) ([]int64, error) {
	return s.tweetIDs, nil
}

// fakeChat labels every text in the prompt as positive by echoing the
// IDs it finds in the "(ID:n)" markers.
type fakeChat struct {
	calls []string
	err   error
}

func (c *fakeChat) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	c.calls = append(c.calls, user)
	if c.err != nil {
		return "", c.err
	}

	var items []string
	for _, line := range strings.Split(user, "\n") {
		if !strings.HasPrefix(line, "[") {
			continue
		}
		start := strings.Index(line, "(ID:")
		end := strings.Index(line, ")")
		if start < 0 || end < start {
			continue
		}
		id := line[start+len("(ID:") : end]
		items = append(items, fmt.Sprintf(`{"id": %s, "sentiment": "positive", "confidence": 0.9}`, id))
	}
	return "[" + strings.Join(items, ",") + "]", nil
}

func TestAnalyzeAll(t *testing.T) {
	store := &fakeStore{
		tweets: []account.Tweet{
			{ID: 1, Text: "AI will change everything"},
			{ID: 2, Text: "nothing relevant"},
			{ID: 3, Text: "more AI takes"},
		},
		bios: []account.Account{
			{ID: 10, Description: "AI researcher"},
			{ID: 11, Description: "gardener"},
		},
	}
	camps := &fakeCampStore{keywords: []camp.Keyword{{ID: 1, Term: "AI", Weight: 1}}}
	chat := &fakeChat{}

	a := NewAnalyzer(store, camps, &fakeMatchStore{}, chat, Config{BatchSize: 2})

	stats, err := a.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TweetsFound)
	assert.Equal(t, 2, stats.TweetsAnalyzed)
	assert.Equal(t, 1, stats.BiosFound)
	assert.Equal(t, 1, stats.BiosAnalyzed)
	assert.Equal(t, 3, stats.Saved)

	// Tweets and bios land in one save call, flagged by origin.
	require.Len(t, store.saved, 3)
	assert.False(t, store.saved[0].IsBio)
	assert.True(t, store.saved[2].IsBio)
	assert.Equal(t, int64(10), store.saved[2].ID)
}

func TestAnalyzeAllBatching(t *testing.T) {
	store := &fakeStore{}
	for i := 1; i <= 5; i++ {
		store.tweets = append(store.tweets, account.Tweet{ID: int64(i), Text: "AI"})
	}
	camps := &fakeCampStore{keywords: []camp.Keyword{{ID: 1, Term: "AI"}}}
	chat := &fakeChat{}

	a := NewAnalyzer(store, camps, &fakeMatchStore{}, chat, Config{BatchSize: 2})

	stats, err := a.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TweetsAnalyzed)
	assert.Len(t, chat.calls, 3)
}

func TestAnalyzeAllFailedBatchYieldsNothing(t *testing.T) {
	store := &fakeStore{tweets: []account.Tweet{{ID: 1, Text: "AI"}}}
	camps := &fakeCampStore{keywords: []camp.Keyword{{ID: 1, Term: "AI"}}}
	chat := &fakeChat{err: fmt.Errorf("upstream unavailable")}

	a := NewAnalyzer(store, camps, &fakeMatchStore{}, chat, Config{})

	stats, err := a.AnalyzeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TweetsFound)
	assert.Zero(t, stats.TweetsAnalyzed)
	assert.Zero(t, stats.Saved)
}

func TestAnalyzeAllCandidateLimit(t *testing.T) {
	store := &fakeStore{}
	for i := 1; i <= 10; i++ {
		store.tweets = append(store.tweets, account.Tweet{ID: int64(i), Text: "AI"})
	}
	camps := &fakeCampStore{keywords: []camp.Keyword{{ID: 1, Term: "AI"}}}

	a := NewAnalyzer(store, camps, &fakeMatchStore{}, &fakeChat{}, Config{CandidateLimit: 4})

	stats, err := a.AnalyzeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TweetsFound)
}

func TestAnalyzeCamp(t *testing.T) {
	store := &fakeStore{
		tweets: []account.Tweet{
			{ID: 1, Text: "AGI soon"},
			{ID: 2, Text: "AGI never"},
			{ID: 3, Text: "unmatched"},
		},
	}
	camps := &fakeCampStore{
		camp:     &camp.Camp{ID: 7, Name: "AI Optimists", Slug: "ai-optimists"},
		keywords: []camp.Keyword{{ID: 1, Term: "AGI", CampID: 7}},
	}
	matches := &fakeMatchStore{tweetIDs: []int64{1, 2}}
	chat := &fakeChat{}

	a := NewAnalyzer(store, camps, matches, chat, Config{})

	stats, err := a.AnalyzeCamp(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "AI Optimists", stats.Camp)
	assert.Equal(t, 2, stats.TweetsFound)
	assert.Equal(t, 2, stats.Analyzed)
	assert.Equal(t, 2, stats.Saved)

	// Camp context is threaded into the prompt.
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.calls[0], "Topic/Camp: AI Optimists")
}

func TestAnalyzeCampNoKeywords(t *testing.T) {
	camps := &fakeCampStore{camp: &camp.Camp{ID: 7, Name: "Empty"}}
	chat := &fakeChat{}

	a := NewAnalyzer(&fakeStore{}, camps, &fakeMatchStore{}, chat, Config{})

	stats, err := a.AnalyzeCamp(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, stats.TweetsFound)
	assert.Empty(t, chat.calls)
}

func TestStats(t *testing.T) {
	store := &fakeStore{
		total:       10,
		analyzed:    6,
		bySentiment: map[string]int{"positive": 4, "negative": 2},
	}

	a := NewAnalyzer(store, &fakeCampStore{}, &fakeMatchStore{}, &fakeChat{}, Config{})

	stats, err := a.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, stats.TotalTweets)
	assert.Equal(t, 6, stats.Analyzed)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, map[string]int{"positive": 4, "negative": 2}, stats.BySentiment)
}
