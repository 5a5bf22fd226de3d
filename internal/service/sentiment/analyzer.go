// internal/service/sentiment/analyzer.go

package sentiment

import (
	"context"
	"fmt"
	"log"

	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
	"campwatch/internal/service/scoring"
)

const (
	defaultBatchSize      = 20
	defaultCandidateLimit = 100

	// One batch per blocking LLM round trip; low temperature because the
	// model must emit machine-readable JSON, not prose.
	completionTemperature = 0.1
	completionMaxTokens   = 2000

	systemPrompt = "You are a sentiment analysis expert. Respond only with valid JSON."

	// Longer texts are truncated before batching to bound prompt size.
	maxTextLength = 500
)

// ChatClient issues a single synchronous text completion.
type ChatClient interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// Store provides the sentiment-related persistence the analyzer needs.
type Store interface {
	// ListUnanalyzedTweets returns tweets with no sentiment recorded.
	ListUnanalyzedTweets(ctx context.Context) ([]account.Tweet, error)

	// ListUnanalyzedTweetsByIDs returns tweets among ids with no sentiment
	// recorded, capped at limit.
	ListUnanalyzedTweetsByIDs(ctx context.Context, ids []int64, limit int) ([]account.Tweet, error)

	// ListUnanalyzedBios returns accounts with a non-empty bio and no bio
	// sentiment recorded.
	ListUnanalyzedBios(ctx context.Context) ([]account.Account, error)

	// SaveResults writes sentiment, confidence and the analyzed timestamp
	// onto the matching tweet or account rows, committing once for the
	// whole call. It returns the number of rows updated.
	SaveResults(ctx context.Context, results []camp.SentimentResult) (int, error)

	// CountTweets returns the total number of tweets.
	CountTweets(ctx context.Context) (int, error)

	// CountAnalyzedTweets returns the number of tweets with a sentiment
	// label.
	CountAnalyzedTweets(ctx context.Context) (int, error)

	// CountBySentiment returns tweet counts grouped by sentiment label.
	CountBySentiment(ctx context.Context) (map[string]int, error)
}

// CampStore provides camp/keyword lookups.
type CampStore interface {
	GetCamp(ctx context.Context, id int) (*camp.Camp, error)
	ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error)
	ListAllKeywords(ctx context.Context) ([]camp.Keyword, error)
}

// MatchStore exposes recorded tweet keyword matches, used to scope a
// camp-specific sentiment pass to tweets already known to match.
type MatchStore interface {
	ListTweetIDsByKeywords(ctx context.Context, keywordIDs []int) ([]int64, error)
}

// Config tunes the analyzer.
type Config struct {
	// BatchSize is the number of texts serialized into one LLM call.
	BatchSize int

	// CandidateLimit caps how many tweets/bios a single pass analyzes.
	CandidateLimit int
}

// RunStats summarizes an AnalyzeAll pass.
type RunStats struct {
	TweetsFound    int `json:"tweets_found"`
	TweetsAnalyzed int `json:"tweets_analyzed"`
	BiosFound      int `json:"bios_found"`
	BiosAnalyzed   int `json:"bios_analyzed"`
	Saved          int `json:"saved"`
}

// CampRunStats summarizes an AnalyzeCamp pass.
type CampRunStats struct {
	Camp        string `json:"camp"`
	TweetsFound int    `json:"tweets_found"`
	Analyzed    int    `json:"analyzed"`
	Saved       int    `json:"saved"`
}

// Stats is aggregate sentiment coverage over all tweets.
type Stats struct {
	TotalTweets int            `json:"total_tweets"`
	Analyzed    int            `json:"analyzed"`
	Pending     int            `json:"pending"`
	BySentiment map[string]int `json:"by_sentiment"`
}

// Analyzer fills in missing sentiment labels by batching keyword-matching
// tweets and bios into LLM calls. Batches that fail to parse or to
// complete contribute zero results; the pass continues with the rest.
type Analyzer struct {
	store   Store
	camps   CampStore
	matches MatchStore
	llm     ChatClient
	config  Config
}

// NewAnalyzer creates a sentiment analyzer.
func NewAnalyzer(store Store, camps CampStore, matches MatchStore, llm ChatClient, config Config) *Analyzer {
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = defaultCandidateLimit
	}

	return &Analyzer{
		store:   store,
		camps:   camps,
		matches: matches,
		llm:     llm,
		config:  config,
	}
}

// AnalyzeAll analyzes every unanalyzed tweet and bio that contains at
// least one keyword term, tweets first, then bios, and saves all produced
// results in a single save call.
func (a *Analyzer) AnalyzeAll(ctx context.Context) (RunStats, error) {
	var stats RunStats

	keywords, err := a.camps.ListAllKeywords(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing keywords: %w", err)
	}

	tweets, err := a.candidateTweets(ctx, keywords)
	if err != nil {
		return stats, err
	}
	stats.TweetsFound = len(tweets)

	var results []camp.SentimentResult
	for i := 0; i < len(tweets); i += a.config.BatchSize {
		batch := tweets[i:min(i+a.config.BatchSize, len(tweets))]
		log.Printf("analyzing tweet batch %d (%d tweets)", i/a.config.BatchSize+1, len(batch))
		batchResults := a.analyzeTweetBatch(ctx, batch, nil, nil)
		results = append(results, batchResults...)
	}
	stats.TweetsAnalyzed = len(results)

	bios, err := a.candidateBios(ctx, keywords)
	if err != nil {
		return stats, err
	}
	stats.BiosFound = len(bios)

	for i := 0; i < len(bios); i += a.config.BatchSize {
		batch := bios[i:min(i+a.config.BatchSize, len(bios))]
		log.Printf("analyzing bio batch %d (%d bios)", i/a.config.BatchSize+1, len(batch))
		batchResults := a.analyzeBioBatch(ctx, batch)
		stats.BiosAnalyzed += len(batchResults)
		results = append(results, batchResults...)
	}

	saved, err := a.store.SaveResults(ctx, results)
	if err != nil {
		return stats, fmt.Errorf("saving sentiment results: %w", err)
	}
	stats.Saved = saved

	return stats, nil
}

// AnalyzeCamp analyzes unanalyzed tweets that already have a recorded
// keyword match for the given camp, with the camp's keywords included as
// topic context in the prompt.
func (a *Analyzer) AnalyzeCamp(ctx context.Context, campID int) (CampRunStats, error) {
	var stats CampRunStats

	c, err := a.camps.GetCamp(ctx, campID)
	if err != nil {
		return stats, err
	}
	stats.Camp = c.Name

	keywords, err := a.camps.ListKeywords(ctx, campID)
	if err != nil {
		return stats, fmt.Errorf("listing camp keywords: %w", err)
	}
	if len(keywords) == 0 {
		return stats, nil
	}

	keywordIDs := make([]int, 0, len(keywords))
	for _, kw := range keywords {
		keywordIDs = append(keywordIDs, kw.ID)
	}

	tweetIDs, err := a.matches.ListTweetIDsByKeywords(ctx, keywordIDs)
	if err != nil {
		return stats, fmt.Errorf("listing matched tweets: %w", err)
	}
	if len(tweetIDs) == 0 {
		return stats, nil
	}

	tweets, err := a.store.ListUnanalyzedTweetsByIDs(ctx, tweetIDs, a.config.CandidateLimit)
	if err != nil {
		return stats, fmt.Errorf("listing unanalyzed tweets: %w", err)
	}
	stats.TweetsFound = len(tweets)

	var results []camp.SentimentResult
	for i := 0; i < len(tweets); i += a.config.BatchSize {
		batch := tweets[i:min(i+a.config.BatchSize, len(tweets))]
		log.Printf("analyzing batch %d (%d tweets) for camp %s", i/a.config.BatchSize+1, len(batch), c.Slug)
		results = append(results, a.analyzeTweetBatch(ctx, batch, c, keywords)...)
	}
	stats.Analyzed = len(results)

	saved, err := a.store.SaveResults(ctx, results)
	if err != nil {
		return stats, fmt.Errorf("saving sentiment results: %w", err)
	}
	stats.Saved = saved

	return stats, nil
}

// Stats returns aggregate sentiment coverage counts.
func (a *Analyzer) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	total, err := a.store.CountTweets(ctx)
	if err != nil {
		return stats, fmt.Errorf("counting tweets: %w", err)
	}

	analyzed, err := a.store.CountAnalyzedTweets(ctx)
	if err != nil {
		return stats, fmt.Errorf("counting analyzed tweets: %w", err)
	}

	bySentiment, err := a.store.CountBySentiment(ctx)
	if err != nil {
		return stats, fmt.Errorf("counting by sentiment: %w", err)
	}

	stats.TotalTweets = total
	stats.Analyzed = analyzed
	stats.Pending = total - analyzed
	stats.BySentiment = bySentiment

	return stats, nil
}

// candidateTweets selects unanalyzed tweets whose text contains at least
// one keyword term, capped at the configured limit. The word-boundary
// check keeps expensive LLM calls scoped to relevant content.
func (a *Analyzer) candidateTweets(ctx context.Context, keywords []camp.Keyword) ([]account.Tweet, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	tweets, err := a.store.ListUnanalyzedTweets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing unanalyzed tweets: %w", err)
	}

	var matching []account.Tweet
	for _, t := range tweets {
		if scoring.MatchesAny(t.Text, keywords) {
			matching = append(matching, t)
			if len(matching) >= a.config.CandidateLimit {
				break
			}
		}
	}

	return matching, nil
}

// candidateBios selects accounts with an unanalyzed bio containing at
// least one keyword term, capped at the configured limit.
func (a *Analyzer) candidateBios(ctx context.Context, keywords []camp.Keyword) ([]account.Account, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	accounts, err := a.store.ListUnanalyzedBios(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing unanalyzed bios: %w", err)
	}

	var matching []account.Account
	for _, acct := range accounts {
		if scoring.MatchesAny(acct.Description, keywords) {
			matching = append(matching, acct)
			if len(matching) >= a.config.CandidateLimit {
				break
			}
		}
	}

	return matching, nil
}

// analyzeTweetBatch submits one batch of tweets as a single LLM call.
// Any call or parse failure yields zero results for the batch.
func (a *Analyzer) analyzeTweetBatch(ctx context.Context, tweets []account.Tweet, c *camp.Camp, keywords []camp.Keyword) []camp.SentimentResult {
	if len(tweets) == 0 {
		return nil
	}

	prompt := buildTweetPrompt(tweets, c, keywords)

	content, err := a.llm.Complete(ctx, systemPrompt, prompt, completionTemperature, completionMaxTokens)
	if err != nil {
		log.Printf("error analyzing tweet batch: %v", err)
		return nil
	}

	results, err := parseResults(content, false)
	if err != nil {
		log.Printf("error parsing tweet batch response: %v", err)
		return nil
	}

	return results
}

// analyzeBioBatch submits one batch of account bios as a single LLM call.
func (a *Analyzer) analyzeBioBatch(ctx context.Context, accounts []account.Account) []camp.SentimentResult {
	if len(accounts) == 0 {
		return nil
	}

	prompt := buildBioPrompt(accounts)

	content, err := a.llm.Complete(ctx, systemPrompt, prompt, completionTemperature, completionMaxTokens)
	if err != nil {
		log.Printf("error analyzing bio batch: %v", err)
		return nil
	}

	results, err := parseResults(content, true)
	if err != nil {
		log.Printf("error parsing bio batch response: %v", err)
		return nil
	}

	return results
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
