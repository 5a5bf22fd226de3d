// internal/domain/account/model.go

package account

import (
	"time"
)

// Account represents a platform account whose bio and tweets are scored.
// Sentiment fields are pointers because a null column means "not yet analyzed".
type Account struct {
	ID              int64      `json:"id"`
	Username        string     `json:"username"`
	Name            string     `json:"name,omitempty"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	URL             string     `json:"url,omitempty"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	Verified        bool       `json:"verified"`
	Protected       bool       `json:"protected"`
	FollowersCount  int        `json:"followers_count"`
	FollowingCount  int        `json:"following_count"`
	TweetCount      int        `json:"tweet_count"`
	ListedCount     int        `json:"listed_count"`
	IsSeed          bool       `json:"is_seed"`
	ScrapeStatus    string     `json:"scrape_status"`
	ScrapedAt       *time.Time `json:"scraped_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	BioSentiment           *string    `json:"bio_sentiment,omitempty"`
	BioSentimentScore      *float64   `json:"bio_sentiment_score,omitempty"`
	BioSentimentAnalyzedAt *time.Time `json:"bio_sentiment_analyzed_at,omitempty"`
}

// Tweet represents a single post fetched from the platform.
type Tweet struct {
	ID             int64      `json:"id"`
	AccountID      int64      `json:"account_id"`
	Text           string     `json:"text"`
	Lang           string     `json:"lang,omitempty"`
	ConversationID int64      `json:"conversation_id,omitempty"`
	RetweetCount   int        `json:"retweet_count"`
	ReplyCount     int        `json:"reply_count"`
	LikeCount      int        `json:"like_count"`
	QuoteCount     int        `json:"quote_count"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	ScrapedAt      time.Time  `json:"scraped_at"`

	Sentiment           *string    `json:"sentiment,omitempty"`
	SentimentScore      *float64   `json:"sentiment_score,omitempty"`
	SentimentAnalyzedAt *time.Time `json:"sentiment_analyzed_at,omitempty"`
}

// Follow is a directed edge in the account graph.
type Follow struct {
	FollowerID   int64     `json:"follower_id"`
	FollowingID  int64     `json:"following_id"`
	DiscoveredAt time.Time `json:"discovered_at"`
}
