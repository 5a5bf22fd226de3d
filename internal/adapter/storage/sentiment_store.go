// internal/adapter/storage/sentiment_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"campwatch/internal/domain/camp"
)

// SentimentStore persists sentiment labels onto tweets and account
// bios. It composes the tweet and account stores for candidate lookups.
type SentimentStore struct {
	db *pgxpool.Pool
	*TweetStore
	*AccountStore
}

// NewSentimentStore creates a new sentiment store
func NewSentimentStore(db *pgxpool.Pool) *SentimentStore {
	return &SentimentStore{
		db:           db,
		TweetStore:   NewTweetStore(db),
		AccountStore: NewAccountStore(db),
	}
}

// SaveResults writes sentiment labels in one transaction. Results for
// unknown IDs update nothing and are not counted.
func (s *SentimentStore) SaveResults(ctx context.Context, results []camp.SentimentResult) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tweetQuery := `
		UPDATE tweets
		SET sentiment = $2, sentiment_score = $3, sentiment_analyzed_at = $4
		WHERE id = $1
	`
	bioQuery := `
		UPDATE accounts
		SET bio_sentiment = $2, bio_sentiment_score = $3, bio_sentiment_analyzed_at = $4
		WHERE id = $1
	`

	now := time.Now().UTC()
	saved := 0

	for _, r := range results {
		query := tweetQuery
		if r.IsBio {
			query = bioQuery
		}

		tag, err := tx.Exec(ctx, query, r.ID, r.Sentiment, r.Confidence, now)
		if err != nil {
			return 0, fmt.Errorf("error saving sentiment result: %w", err)
		}
		saved += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing sentiment results: %w", err)
	}

	return saved, nil
}
