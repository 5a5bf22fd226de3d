// internal/adapter/storage/tweet_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"campwatch/internal/domain/account"
)

const tweetColumns = `
	id, account_id, text, lang, conversation_id,
	retweet_count, reply_count, like_count, quote_count,
	posted_at, scraped_at,
	sentiment, sentiment_score, sentiment_analyzed_at
`

// TweetStore implements storage for tweets
type TweetStore struct {
	db *pgxpool.Pool
}

// NewTweetStore creates a new tweet store
func NewTweetStore(db *pgxpool.Pool) *TweetStore {
	return &TweetStore{
		db: db,
	}
}

// UpsertTweet inserts or updates a tweet. Sentiment columns are left
// untouched so a re-scrape never clears an existing analysis.
func (s *TweetStore) UpsertTweet(ctx context.Context, t *account.Tweet) error {
	query := `
		INSERT INTO tweets (
			id, account_id, text, lang, conversation_id,
			retweet_count, reply_count, like_count, quote_count, posted_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)
		ON CONFLICT (id) DO UPDATE
		SET
			text = $3,
			lang = $4,
			conversation_id = $5,
			retweet_count = $6,
			reply_count = $7,
			like_count = $8,
			quote_count = $9
	`

	_, err := s.db.Exec(
		ctx,
		query,
		t.ID,
		t.AccountID,
		t.Text,
		t.Lang,
		t.ConversationID,
		t.RetweetCount,
		t.ReplyCount,
		t.LikeCount,
		t.QuoteCount,
		t.PostedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting tweet: %w", err)
	}

	return nil
}

// GetTweet retrieves a tweet by ID
func (s *TweetStore) GetTweet(ctx context.Context, id int64) (*account.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE id = $1`

	t, err := scanTweet(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tweet %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error querying tweet: %w", err)
	}

	return t, nil
}

// ListTweetsByAccount returns an account's tweets, newest first.
func (s *TweetStore) ListTweetsByAccount(ctx context.Context, accountID int64) ([]account.Tweet, error) {
	query := `
		SELECT ` + tweetColumns + `
		FROM tweets
		WHERE account_id = $1
		ORDER BY posted_at DESC NULLS LAST
	`

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying tweets: %w", err)
	}
	defer rows.Close()

	return collectTweets(rows)
}

// ListUnanalyzedTweets returns tweets with no sentiment recorded.
func (s *TweetStore) ListUnanalyzedTweets(ctx context.Context) ([]account.Tweet, error) {
	query := `SELECT ` + tweetColumns + ` FROM tweets WHERE sentiment IS NULL`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying unanalyzed tweets: %w", err)
	}
	defer rows.Close()

	return collectTweets(rows)
}

// ListUnanalyzedTweetsByIDs returns tweets among ids with no sentiment
// recorded, capped at limit.
func (s *TweetStore) ListUnanalyzedTweetsByIDs(ctx context.Context, ids []int64, limit int) ([]account.Tweet, error) {
	query := `
		SELECT ` + tweetColumns + `
		FROM tweets
		WHERE id = ANY($1) AND sentiment IS NULL
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying unanalyzed tweets: %w", err)
	}
	defer rows.Close()

	return collectTweets(rows)
}

// CountTweets returns the total number of tweets.
func (s *TweetStore) CountTweets(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting tweets: %w", err)
	}
	return count, nil
}

// CountAnalyzedTweets returns the number of tweets with a sentiment
// label.
func (s *TweetStore) CountAnalyzedTweets(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM tweets WHERE sentiment IS NOT NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting analyzed tweets: %w", err)
	}
	return count, nil
}

// CountBySentiment returns tweet counts grouped by sentiment label.
func (s *TweetStore) CountBySentiment(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT sentiment, COUNT(*)
		FROM tweets
		WHERE sentiment IS NOT NULL
		GROUP BY sentiment
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error counting by sentiment: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sentiment string
		var count int
		if err := rows.Scan(&sentiment, &count); err != nil {
			return nil, fmt.Errorf("error scanning sentiment count: %w", err)
		}
		counts[sentiment] = count
	}

	return counts, rows.Err()
}

func scanTweet(row rowScanner) (*account.Tweet, error) {
	var t account.Tweet
	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Text,
		&t.Lang,
		&t.ConversationID,
		&t.RetweetCount,
		&t.ReplyCount,
		&t.LikeCount,
		&t.QuoteCount,
		&t.PostedAt,
		&t.ScrapedAt,
		&t.Sentiment,
		&t.SentimentScore,
		&t.SentimentAnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTweets(rows pgx.Rows) ([]account.Tweet, error) {
	var tweets []account.Tweet
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning tweet: %w", err)
		}
		tweets = append(tweets, *t)
	}
	return tweets, rows.Err()
}
