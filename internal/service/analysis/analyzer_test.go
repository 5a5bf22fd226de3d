// internal/service/analysis/analyzer_test.go

package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
	"campwatch/internal/service/sentiment"
)

type fakeCampStore struct {
	camps    []camp.Camp
	keywords map[int][]camp.Keyword
}

func (s *fakeCampStore) ListCamps(ctx context.Context) ([]camp.Camp, error) { return s.camps, nil }

func (s *fakeCampStore) GetCamp(ctx context.Context, id int) (*camp.Camp, error) {
	for i := range s.camps {
		if s.camps[i].ID == id {
			return &s.camps[i], nil
		}
	}
	return nil, assert.AnError
}

func (s *fakeCampStore) GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error) {
	for i := range s.camps {
		if s.camps[i].Slug == slug {
			return &s.camps[i], nil
		}
	}
	return nil, assert.AnError
}

func (s *fakeCampStore) ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error) {
	return s.keywords[campID], nil
}

type fakeAccountStore struct {
	accounts []account.Account
	getErr   error
}

func (s *fakeAccountStore) GetAccount(ctx context.Context, id int64) (*account.Account, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return &s.accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account %d: %w", id, storage.ErrNotFound)
}

func (s *fakeAccountStore) GetAccountByUsername(ctx context.Context, username string) (*account.Account, error) {
	for i := range s.accounts {
		if s.accounts[i].Username == username {
			return &s.accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account %q: %w", username, storage.ErrNotFound)
}

func (s *fakeAccountStore) ListAccounts(ctx context.Context, seedsOnly bool) ([]account.Account, error) {
	if !seedsOnly {
		return s.accounts, nil
	}
	var out []account.Account
	for _, a := range s.accounts {
		if a.IsSeed {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTweetStore struct {
	tweets map[int64][]account.Tweet
	getErr error
}

func (s *fakeTweetStore) ListTweetsByAccount(ctx context.Context, accountID int64) ([]account.Tweet, error) {
	return s.tweets[accountID], nil
}

func (s *fakeTweetStore) GetTweet(ctx context.Context, id int64) (*account.Tweet, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, list := range s.tweets {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}
	return nil, fmt.Errorf("tweet %d: %w", id, storage.ErrNotFound)
}

type fakeScoreStore struct {
	savedScores  [][]camp.AccountCampScore
	savedMatches [][]camp.TweetKeywordMatch
	matches      []camp.TweetKeywordMatch
	leaderboard  []camp.LeaderboardEntry
}

func (s *fakeScoreStore) SaveAnalysis(ctx context.Context, scores []camp.AccountCampScore, matches []camp.TweetKeywordMatch) error {
	s.savedScores = append(s.savedScores, scores)
	s.savedMatches = append(s.savedMatches, matches)
	return nil
}

func (s *fakeScoreStore) ListScoresByAccount(ctx context.Context, accountID int64) ([]camp.AccountCampScore, error) {
	return nil, nil
}

func (s *fakeScoreStore) Leaderboard(ctx context.Context, campID, limit int) ([]camp.LeaderboardEntry, error) {
	if limit < len(s.leaderboard) {
		return s.leaderboard[:limit], nil
	}
	return s.leaderboard, nil
}

func (s *fakeScoreStore) ListMatchesByKeywords(ctx context.Context, keywordIDs []int) ([]camp.TweetKeywordMatch, error) {
	return s.matches, nil
}

type fakeSentimentRunner struct {
	calls int
}

func (r *fakeSentimentRunner) AnalyzeAll(ctx context.Context) (sentiment.RunStats, error) {
	r.calls++
	return sentiment.RunStats{TweetsAnalyzed: 1}, nil
}

func strPtr(s string) *string { return &s }

func newTestService(camps *fakeCampStore, accounts *fakeAccountStore, tweets *fakeTweetStore, scores *fakeScoreStore, runner SentimentRunner) *Service {
	return NewService(camps, accounts, tweets, scores, runner, nil, Config{})
}

func TestAnalyzeAccountBioDoubleWeight(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists", Slug: "ai-optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentPositive, Weight: 1.5, CampID: 1}},
		},
	}
	acct := &account.Account{
		ID:           100,
		Username:     "builder",
		Description:  "I love AI",
		BioSentiment: strPtr(camp.SentimentPositive),
	}
	svc := newTestService(camps, &fakeAccountStore{}, &fakeTweetStore{}, &fakeScoreStore{}, nil)

	results, err := svc.AnalyzeAccount(context.Background(), acct)
	require.NoError(t, err)
	require.Contains(t, results, 1)

	r := results[1]
	assert.InDelta(t, 3.0, r.BioScore, 1e-9)
	assert.InDelta(t, 3.0, r.Score, 1e-9)
	assert.Zero(t, r.TweetScore)
	require.Len(t, r.BioMatches, 1)
	assert.Equal(t, "AI", r.BioMatches[0].Term)
}

func TestAnalyzeAccountSentimentMismatchDropsBio(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentPositive, Weight: 1.5, CampID: 1}},
		},
	}
	acct := &account.Account{
		ID:           100,
		Description:  "I love AI",
		BioSentiment: strPtr(camp.SentimentNegative),
	}
	svc := newTestService(camps, &fakeAccountStore{}, &fakeTweetStore{}, &fakeScoreStore{}, nil)

	results, err := svc.AnalyzeAccount(context.Background(), acct)
	require.NoError(t, err)

	r := results[1]
	assert.Zero(t, r.Score)
	assert.Empty(t, r.BioMatches)
}

func TestAnalyzeAccountSkipsCampsWithoutKeywords(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{
			{ID: 1, Name: "Empty"},
			{ID: 2, Name: "AI Optimists"},
		},
		keywords: map[int][]camp.Keyword{
			2: {{ID: 20, Term: "AI", ExpectedSentiment: camp.SentimentAny, Weight: 1, CampID: 2}},
		},
	}
	acct := &account.Account{ID: 100, Description: "AI forever"}
	svc := newTestService(camps, &fakeAccountStore{}, &fakeTweetStore{}, &fakeScoreStore{}, nil)

	results, err := svc.AnalyzeAccount(context.Background(), acct)
	require.NoError(t, err)

	assert.NotContains(t, results, 1)
	assert.Contains(t, results, 2)
}

func TestAnalyzeAccountAggregatesTweetMatches(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {
				{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentAny, Weight: 1, CampID: 1},
				{ID: 11, Term: "AGI", ExpectedSentiment: camp.SentimentAny, Weight: 2, CampID: 1},
			},
		},
	}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {
			{ID: 1, AccountID: 100, Text: "AI and AGI"},
			{ID: 2, AccountID: 100, Text: "more AI"},
			{ID: 3, AccountID: 100, Text: "nothing here"},
		},
	}}
	acct := &account.Account{ID: 100}
	svc := newTestService(camps, &fakeAccountStore{}, tweets, &fakeScoreStore{}, nil)

	results, err := svc.AnalyzeAccount(context.Background(), acct)
	require.NoError(t, err)

	r := results[1]
	assert.InDelta(t, 4.0, r.TweetScore, 1e-9)

	// Per-term aggregation keeps first-seen order.
	require.Len(t, r.TweetMatches, 2)
	assert.Equal(t, "AI", r.TweetMatches[0].Term)
	assert.Equal(t, 2, r.TweetMatches[0].Count)
	assert.Equal(t, "AGI", r.TweetMatches[1].Term)
	assert.Equal(t, 1, r.TweetMatches[1].Count)

	assert.ElementsMatch(t, []camp.TweetKeywordMatch{
		{TweetID: 1, KeywordID: 10},
		{TweetID: 1, KeywordID: 11},
		{TweetID: 2, KeywordID: 10},
	}, r.MatchedTweets)
}

func TestAnalyzeAndSave(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentAny, Weight: 1, CampID: 1}},
		},
	}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {{ID: 1, AccountID: 100, Text: "AI"}},
	}}
	scores := &fakeScoreStore{}
	acct := &account.Account{ID: 100, Username: "builder"}
	svc := newTestService(camps, &fakeAccountStore{}, tweets, scores, nil)

	saved, err := svc.AnalyzeAndSave(context.Background(), acct)
	require.NoError(t, err)

	require.Len(t, saved, 1)
	assert.Equal(t, int64(100), saved[0].AccountID)
	assert.Equal(t, 1, saved[0].CampID)
	require.NotNil(t, saved[0].AnalyzedAt)

	// One save call carries scores and matches together.
	require.Len(t, scores.savedScores, 1)
	require.Len(t, scores.savedMatches, 1)
	assert.Len(t, scores.savedMatches[0], 1)
}

func TestAnalyzeAllAccounts(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentAny, Weight: 1, CampID: 1}},
		},
	}
	accounts := &fakeAccountStore{accounts: []account.Account{
		{ID: 100, Username: "builder", Description: "AI"},
		{ID: 200, Username: "skeptic"},
	}}
	scores := &fakeScoreStore{}
	runner := &fakeSentimentRunner{}
	svc := newTestService(camps, accounts, &fakeTweetStore{}, scores, runner)

	stats, err := svc.AnalyzeAllAccounts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 2, stats.Analyzed)
	assert.Equal(t, 2, stats.TotalScores)
	assert.NotEmpty(t, stats.RunID)
	assert.Len(t, scores.savedScores, 2)
}

func TestGetCampTopTweets(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{{ID: 1, Name: "AI Optimists"}},
		keywords: map[int][]camp.Keyword{
			1: {
				{ID: 10, Term: "AI", Weight: 1, CampID: 1},
				{ID: 11, Term: "AGI", Weight: 2, CampID: 1},
			},
		},
	}
	accounts := &fakeAccountStore{accounts: []account.Account{{ID: 100, Username: "builder"}}}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {
			{ID: 1, AccountID: 100, Text: "AI"},
			{ID: 2, AccountID: 100, Text: "AI and AGI and AI"},
		},
	}}
	scores := &fakeScoreStore{matches: []camp.TweetKeywordMatch{
		{TweetID: 1, KeywordID: 10},
		{TweetID: 2, KeywordID: 10},
		{TweetID: 2, KeywordID: 11},
		{TweetID: 2, KeywordID: 10},
	}}
	svc := newTestService(camps, accounts, tweets, scores, nil)

	top, err := svc.GetCampTopTweets(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].Tweet.ID)
	assert.InDelta(t, 4.0, top[0].Score, 1e-9)
	assert.Equal(t, []string{"AI", "AGI"}, top[0].MatchedKeywords)
	assert.Equal(t, int64(1), top[1].Tweet.ID)
	assert.Equal(t, "builder", top[0].Account.Username)
}

func TestGetCampTopTweetsLimit(t *testing.T) {
	camps := &fakeCampStore{
		camps:    []camp.Camp{{ID: 1}},
		keywords: map[int][]camp.Keyword{1: {{ID: 10, Term: "AI", Weight: 1, CampID: 1}}},
	}
	accounts := &fakeAccountStore{accounts: []account.Account{{ID: 100}}}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {{ID: 1, AccountID: 100}, {ID: 2, AccountID: 100}},
	}}
	scores := &fakeScoreStore{matches: []camp.TweetKeywordMatch{
		{TweetID: 1, KeywordID: 10},
		{TweetID: 2, KeywordID: 10},
	}}
	svc := newTestService(camps, accounts, tweets, scores, nil)

	top, err := svc.GetCampTopTweets(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestAnalyzeAndSaveRepeatRunIsIdentical(t *testing.T) {
	camps := &fakeCampStore{
		camps: []camp.Camp{
			{ID: 1, Name: "AI Optimists"},
			{ID: 2, Name: "AI Skeptics"},
		},
		keywords: map[int][]camp.Keyword{
			1: {
				{ID: 10, Term: "AI", ExpectedSentiment: camp.SentimentAny, Weight: 1, CampID: 1},
				{ID: 11, Term: "AGI", ExpectedSentiment: camp.SentimentPositive, Weight: 2, CampID: 1},
			},
			2: {{ID: 20, Term: "doom", ExpectedSentiment: camp.SentimentAny, Weight: 1.5, CampID: 2}},
		},
	}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {
			{ID: 1, AccountID: 100, Text: "AGI and AI", Sentiment: strPtr(camp.SentimentPositive)},
			{ID: 2, AccountID: 100, Text: "AI doom incoming"},
		},
	}}
	scores := &fakeScoreStore{}
	acct := &account.Account{ID: 100, Username: "builder", Description: "all in on AI"}
	svc := newTestService(camps, &fakeAccountStore{}, tweets, scores, nil)

	_, err := svc.AnalyzeAndSave(context.Background(), acct)
	require.NoError(t, err)
	_, err = svc.AnalyzeAndSave(context.Background(), acct)
	require.NoError(t, err)

	// With no new data, a repeat run recomputes the exact same rows.
	require.Len(t, scores.savedScores, 2)
	first := normalizeScores(scores.savedScores[0])
	second := normalizeScores(scores.savedScores[1])
	assert.ElementsMatch(t, first, second)

	require.Len(t, scores.savedMatches, 2)
	assert.ElementsMatch(t, scores.savedMatches[0], scores.savedMatches[1])
}

// normalizeScores drops the per-run analysis timestamp so rows from
// different runs compare on content.
func normalizeScores(scores []camp.AccountCampScore) []camp.AccountCampScore {
	out := make([]camp.AccountCampScore, len(scores))
	for i, sc := range scores {
		sc.AnalyzedAt = nil
		out[i] = sc
	}
	return out
}

func TestGetCampTopTweetsSkipsMissingRows(t *testing.T) {
	camps := &fakeCampStore{
		camps:    []camp.Camp{{ID: 1}},
		keywords: map[int][]camp.Keyword{1: {{ID: 10, Term: "AI", Weight: 1, CampID: 1}}},
	}
	accounts := &fakeAccountStore{accounts: []account.Account{{ID: 100}}}
	tweets := &fakeTweetStore{tweets: map[int64][]account.Tweet{
		100: {{ID: 1, AccountID: 100}},
	}}
	scores := &fakeScoreStore{matches: []camp.TweetKeywordMatch{
		{TweetID: 1, KeywordID: 10},
		{TweetID: 999, KeywordID: 10},
	}}
	svc := newTestService(camps, accounts, tweets, scores, nil)

	top, err := svc.GetCampTopTweets(context.Background(), 1, 10)
	require.NoError(t, err)

	// The match row for the deleted tweet is dropped, the rest survive.
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].Tweet.ID)
}

func TestGetCampTopTweetsPropagatesStoreErrors(t *testing.T) {
	camps := &fakeCampStore{
		camps:    []camp.Camp{{ID: 1}},
		keywords: map[int][]camp.Keyword{1: {{ID: 10, Term: "AI", Weight: 1, CampID: 1}}},
	}
	tweets := &fakeTweetStore{getErr: assert.AnError}
	scores := &fakeScoreStore{matches: []camp.TweetKeywordMatch{{TweetID: 1, KeywordID: 10}}}
	svc := newTestService(camps, &fakeAccountStore{}, tweets, scores, nil)

	_, err := svc.GetCampTopTweets(context.Background(), 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	accounts := &fakeAccountStore{getErr: assert.AnError}
	tweets = &fakeTweetStore{tweets: map[int64][]account.Tweet{100: {{ID: 1, AccountID: 100}}}}
	svc = newTestService(camps, accounts, tweets, scores, nil)

	_, err = svc.GetCampTopTweets(context.Background(), 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGetCampTopTweetsNoKeywords(t *testing.T) {
	camps := &fakeCampStore{camps: []camp.Camp{{ID: 1}}, keywords: map[int][]camp.Keyword{}}
	svc := newTestService(camps, &fakeAccountStore{}, &fakeTweetStore{}, &fakeScoreStore{}, nil)

	top, err := svc.GetCampTopTweets(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
