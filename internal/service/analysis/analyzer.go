// internal/service/analysis/analyzer.go

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
	"campwatch/internal/service/scoring"
	"campwatch/internal/service/sentiment"
)

// CampStore provides camp and keyword lookups.
type CampStore interface {
	ListCamps(ctx context.Context) ([]camp.Camp, error)
	GetCamp(ctx context.Context, id int) (*camp.Camp, error)
	GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error)
	ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error)
}

// AccountStore provides account lookups.
type AccountStore interface {
	GetAccount(ctx context.Context, id int64) (*account.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*account.Account, error)
	ListAccounts(ctx context.Context, seedsOnly bool) ([]account.Account, error)
}

// TweetStore provides tweet lookups.
type TweetStore interface {
	ListTweetsByAccount(ctx context.Context, accountID int64) ([]account.Tweet, error)
	GetTweet(ctx context.Context, id int64) (*account.Tweet, error)
}

// ScoreStore persists camp scores and tweet keyword matches.
type ScoreStore interface {
	// SaveAnalysis upserts scores and records tweet keyword matches in a
	// single transaction. Re-recording a known (tweet, keyword) pair is a
	// no-op.
	SaveAnalysis(ctx context.Context, scores []camp.AccountCampScore, matches []camp.TweetKeywordMatch) error

	ListScoresByAccount(ctx context.Context, accountID int64) ([]camp.AccountCampScore, error)
	Leaderboard(ctx context.Context, campID, limit int) ([]camp.LeaderboardEntry, error)
	ListMatchesByKeywords(ctx context.Context, keywordIDs []int) ([]camp.TweetKeywordMatch, error)
}

// SentimentRunner fills in missing sentiment labels before scoring.
type SentimentRunner interface {
	AnalyzeAll(ctx context.Context) (sentiment.RunStats, error)
}

// Config contains configuration for the analysis service.
type Config struct {
	EventsTopic string
}

// CampResult is the outcome of scoring one account against one camp.
type CampResult struct {
	Camp         camp.Camp          `json:"camp"`
	Score        float64            `json:"score"`
	BioScore     float64            `json:"bio_score"`
	TweetScore   float64            `json:"tweet_score"`
	BioMatches   []camp.MatchDetail `json:"bio_matches"`
	TweetMatches []camp.MatchDetail `json:"tweet_matches"`

	// MatchedTweets records which keyword hit which tweet, for the
	// tweet_keyword_matches table.
	MatchedTweets []camp.TweetKeywordMatch `json:"-"`
}

// RunStats summarizes a full analysis run.
type RunStats struct {
	RunID       string `json:"run_id"`
	Analyzed    int    `json:"analyzed"`
	TotalScores int    `json:"total_scores"`
}

// Service scores accounts against camps from bio and tweet keyword
// matches, persisting one score row per (account, camp) pair.
type Service struct {
	camps     CampStore
	accounts  AccountStore
	tweets    TweetStore
	scores    ScoreStore
	sentiment SentimentRunner
	eventBus  *nats.Conn
	config    Config
}

// NewService creates an analysis service. eventBus and sentiment may be
// nil; eventing and the sentiment pass are skipped when absent.
func NewService(
	camps CampStore,
	accounts AccountStore,
	tweets TweetStore,
	scores ScoreStore,
	sentiment SentimentRunner,
	eventBus *nats.Conn,
	config Config,
) *Service {
	if config.EventsTopic == "" {
		config.EventsTopic = "analysis"
	}

	return &Service{
		camps:     camps,
		accounts:  accounts,
		tweets:    tweets,
		scores:    scores,
		sentiment: sentiment,
		eventBus:  eventBus,
		config:    config,
	}
}

// AnalyzeAccount scores one account against every camp using whatever
// sentiment labels are already stored. Camps without keywords are
// skipped. Results are keyed by camp ID.
func (s *Service) AnalyzeAccount(ctx context.Context, acct *account.Account) (map[int]CampResult, error) {
	camps, err := s.camps.ListCamps(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing camps: %w", err)
	}

	tweets, err := s.tweets.ListTweetsByAccount(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("listing tweets for account %d: %w", acct.ID, err)
	}

	results := make(map[int]CampResult)

	for _, c := range camps {
		keywords, err := s.camps.ListKeywords(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("listing keywords for camp %d: %w", c.ID, err)
		}
		if len(keywords) == 0 {
			continue
		}

		bioTextMatches := scoring.FindMatches(acct.Description, keywords)
		bioMatches := scoring.FilterBySentiment(bioTextMatches, acct.BioSentiment)
		bioScore := scoring.ComputeScore(bioMatches) * 2 // bios count double

		var (
			tweetScore    float64
			matchedTweets []camp.TweetKeywordMatch
		)

		// Aggregate per-term across tweets, first-seen order.
		tweetAgg := make(map[string]*camp.MatchDetail)
		var termOrder []string

		for _, t := range tweets {
			textMatches := scoring.FindMatches(t.Text, keywords)
			if len(textMatches) == 0 {
				continue
			}

			matches := scoring.FilterBySentiment(textMatches, t.Sentiment)
			for _, m := range matches {
				tweetScore += m.Keyword.Weight * float64(m.Count)
				matchedTweets = append(matchedTweets, camp.TweetKeywordMatch{
					TweetID:   t.ID,
					KeywordID: m.Keyword.ID,
				})

				agg, ok := tweetAgg[m.Keyword.Term]
				if !ok {
					agg = &camp.MatchDetail{
						Term:              m.Keyword.Term,
						Weight:            m.Keyword.Weight,
						ExpectedSentiment: m.Keyword.ExpectedSentiment,
					}
					tweetAgg[m.Keyword.Term] = agg
					termOrder = append(termOrder, m.Keyword.Term)
				}
				agg.Count += m.Count
			}
		}

		bioDetails := make([]camp.MatchDetail, 0, len(bioMatches))
		for _, m := range bioMatches {
			bioDetails = append(bioDetails, camp.MatchDetail{
				Term:   m.Keyword.Term,
				Count:  m.Count,
				Weight: m.Keyword.Weight,
			})
		}

		tweetDetails := make([]camp.MatchDetail, 0, len(termOrder))
		for _, term := range termOrder {
			tweetDetails = append(tweetDetails, *tweetAgg[term])
		}

		results[c.ID] = CampResult{
			Camp:          c,
			Score:         bioScore + tweetScore,
			BioScore:      bioScore,
			TweetScore:    tweetScore,
			BioMatches:    bioDetails,
			TweetMatches:  tweetDetails,
			MatchedTweets: matchedTweets,
		}
	}

	return results, nil
}

// AnalyzeAndSave analyzes one account and persists its camp scores and
// tweet keyword matches in a single save call. A score event is
// published per camp.
func (s *Service) AnalyzeAndSave(ctx context.Context, acct *account.Account) ([]camp.AccountCampScore, error) {
	results, err := s.AnalyzeAccount(ctx, acct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scores := make([]camp.AccountCampScore, 0, len(results))
	var matches []camp.TweetKeywordMatch

	for campID, r := range results {
		scores = append(scores, camp.AccountCampScore{
			AccountID:  acct.ID,
			CampID:     campID,
			Score:      r.Score,
			BioScore:   r.BioScore,
			TweetScore: r.TweetScore,
			MatchDetails: camp.MatchDetails{
				BioMatches:   r.BioMatches,
				TweetMatches: r.TweetMatches,
			},
			AnalyzedAt: &now,
		})
		matches = append(matches, r.MatchedTweets...)
	}

	if err := s.scores.SaveAnalysis(ctx, scores, matches); err != nil {
		return nil, fmt.Errorf("saving analysis for account %d: %w", acct.ID, err)
	}

	for _, score := range scores {
		if err := s.publishScoreEvent(acct, score); err != nil {
			log.Printf("error publishing score event: %v", err)
		}
	}

	return scores, nil
}

// AnalyzeAllAccounts runs the sentiment pass and then scores every known
// account.
func (s *Service) AnalyzeAllAccounts(ctx context.Context) (RunStats, error) {
	stats := RunStats{RunID: uuid.New().String()}

	if s.sentiment != nil {
		log.Println("running sentiment analysis on keyword-matching content...")
		sentimentStats, err := s.sentiment.AnalyzeAll(ctx)
		if err != nil {
			return stats, fmt.Errorf("sentiment pass: %w", err)
		}
		log.Printf("sentiment: %d tweets, %d bios analyzed", sentimentStats.TweetsAnalyzed, sentimentStats.BiosAnalyzed)
	}

	accounts, err := s.accounts.ListAccounts(ctx, false)
	if err != nil {
		return stats, fmt.Errorf("listing accounts: %w", err)
	}

	for i := range accounts {
		scores, err := s.AnalyzeAndSave(ctx, &accounts[i])
		if err != nil {
			return stats, err
		}
		stats.Analyzed++
		stats.TotalScores += len(scores)
		log.Printf("analyzed @%s: %d camp scores", accounts[i].Username, len(scores))
	}

	if err := s.publishRunEvent(stats); err != nil {
		log.Printf("error publishing run event: %v", err)
	}

	return stats, nil
}

// GetCampLeaderboard returns accounts with a positive score for the
// camp, highest first.
func (s *Service) GetCampLeaderboard(ctx context.Context, campID, limit int) ([]camp.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.scores.Leaderboard(ctx, campID, limit)
}

// GetCampTopTweets ranks recorded matching tweets for a camp by the sum
// of matched keyword weights.
func (s *Service) GetCampTopTweets(ctx context.Context, campID, limit int) ([]camp.TopTweet, error) {
	if limit <= 0 {
		limit = 20
	}

	keywords, err := s.camps.ListKeywords(ctx, campID)
	if err != nil {
		return nil, fmt.Errorf("listing keywords for camp %d: %w", campID, err)
	}
	if len(keywords) == 0 {
		return []camp.TopTweet{}, nil
	}

	keywordIDs := make([]int, 0, len(keywords))
	keywordMap := make(map[int]camp.Keyword, len(keywords))
	for _, kw := range keywords {
		keywordIDs = append(keywordIDs, kw.ID)
		keywordMap[kw.ID] = kw
	}

	matches, err := s.scores.ListMatchesByKeywords(ctx, keywordIDs)
	if err != nil {
		return nil, fmt.Errorf("listing matches for camp %d: %w", campID, err)
	}

	type tweetScore struct {
		tweetID int64
		score   float64
		terms   []string
	}

	byTweet := make(map[int64]*tweetScore)
	var order []int64
	for _, m := range matches {
		kw, ok := keywordMap[m.KeywordID]
		if !ok {
			continue
		}
		ts, ok := byTweet[m.TweetID]
		if !ok {
			ts = &tweetScore{tweetID: m.TweetID}
			byTweet[m.TweetID] = ts
			order = append(order, m.TweetID)
		}
		ts.score += kw.Weight
		ts.terms = append(ts.terms, kw.Term)
	}

	ranked := make([]*tweetScore, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, byTweet[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	// A match row can outlive its tweet or account; skip those, but a
	// failing store must not silently shrink the ranking.
	results := make([]camp.TopTweet, 0, len(ranked))
	for _, ts := range ranked {
		tweet, err := s.tweets.GetTweet(ctx, ts.tweetID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting tweet %d: %w", ts.tweetID, err)
		}
		acct, err := s.accounts.GetAccount(ctx, tweet.AccountID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting account %d: %w", tweet.AccountID, err)
		}
		results = append(results, camp.TopTweet{
			Tweet:           *tweet,
			Account:         *acct,
			Score:           ts.score,
			MatchedKeywords: dedupeTerms(ts.terms),
		})
	}

	return results, nil
}

// GetAccountScores returns every stored camp score for an account.
func (s *Service) GetAccountScores(ctx context.Context, accountID int64) ([]camp.AccountCampScore, error) {
	return s.scores.ListScoresByAccount(ctx, accountID)
}

// publishScoreEvent publishes a score updated event
func (s *Service) publishScoreEvent(acct *account.Account, score camp.AccountCampScore) error {
	if s.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"account_id": acct.ID,
		"username":   acct.Username,
		"camp_id":    score.CampID,
		"score":      score.Score,
	})
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s.score.updated", s.config.EventsTopic)
	return s.eventBus.Publish(topic, data)
}

// publishRunEvent publishes a run completed event
func (s *Service) publishRunEvent(stats RunStats) error {
	if s.eventBus == nil {
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("%s.run.completed", s.config.EventsTopic)
	return s.eventBus.Publish(topic, data)
}

func dedupeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
