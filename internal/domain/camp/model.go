// internal/domain/camp/model.go

package camp

import (
	"time"

	"campwatch/internal/domain/account"
)

// Sentiment labels produced by analysis. A null label in storage means
// "not yet analyzed".
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// SentimentAny on a keyword means its matches count regardless of the
// text's sentiment label.
const SentimentAny = "any"

// Camp is a user-defined topic accounts are scored against. It owns its
// keywords: deleting a camp cascades keyword deletion.
type Camp struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// Keyword is a weighted term with a required sentiment polarity.
type Keyword struct {
	ID                int       `json:"id"`
	Term              string    `json:"term"`
	ExpectedSentiment string    `json:"expected_sentiment"`
	CaseSensitive     bool      `json:"case_sensitive"`
	CampID            int       `json:"camp_id"`
	Weight            float64   `json:"weight"`
	CreatedAt         time.Time `json:"created_at"`
}

// MatchDetail is one line of match provenance persisted alongside a score.
type MatchDetail struct {
	Term              string  `json:"term"`
	Count             int     `json:"count"`
	Weight            float64 `json:"weight"`
	ExpectedSentiment string  `json:"expected_sentiment,omitempty"`
}

// MatchDetails is the serialized provenance payload of an AccountCampScore.
type MatchDetails struct {
	BioMatches   []MatchDetail `json:"bio_matches"`
	TweetMatches []MatchDetail `json:"tweet_matches"`
}

// AccountCampScore holds the scoring result for one (account, camp) pair.
// There is at most one row per pair; re-analysis overwrites, never appends.
type AccountCampScore struct {
	AccountID    int64        `json:"account_id"`
	CampID       int          `json:"camp_id"`
	Score        float64      `json:"score"`
	BioScore     float64      `json:"bio_score"`
	TweetScore   float64      `json:"tweet_score"`
	MatchDetails MatchDetails `json:"match_details"`
	AnalyzedAt   *time.Time   `json:"analyzed_at,omitempty"`
}

// TweetKeywordMatch is the durable fact that a tweet matched a keyword.
// Written insert-or-ignore; never updated or removed by re-analysis.
type TweetKeywordMatch struct {
	TweetID   int64 `json:"tweet_id"`
	KeywordID int   `json:"keyword_id"`
}

// SentimentResult is one parsed item of an LLM sentiment batch response.
type SentimentResult struct {
	ID         int64   `json:"id"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	IsBio      bool    `json:"is_bio"`
}

// LeaderboardEntry pairs a scored account with its camp score for ranking.
type LeaderboardEntry struct {
	Account    account.Account `json:"account"`
	Score      float64         `json:"score"`
	BioScore   float64         `json:"bio_score"`
	TweetScore float64         `json:"tweet_score"`
}

// TopTweet is a tweet ranked by the summed weight of its recorded keyword
// matches within one camp.
type TopTweet struct {
	Tweet           account.Tweet   `json:"tweet"`
	Account         account.Account `json:"account"`
	Score           float64         `json:"score"`
	MatchedKeywords []string        `json:"matched_keywords"`
}

// ValidSentiment reports whether s is a label analysis may produce.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}
