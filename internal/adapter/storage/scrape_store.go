// internal/adapter/storage/scrape_store.go

package storage

import (
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScrapeStore composes account and tweet persistence for the scraper.
type ScrapeStore struct {
	*AccountStore
	*TweetStore
}

// NewScrapeStore creates a new scrape store
func NewScrapeStore(db *pgxpool.Pool) *ScrapeStore {
	return &ScrapeStore{
		AccountStore: NewAccountStore(db),
		TweetStore:   NewTweetStore(db),
	}
}
