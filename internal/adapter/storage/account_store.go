// internal/adapter/storage/account_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"campwatch/internal/domain/account"
)

const accountColumns = `
	id, username, name, description, location, url, profile_image_url,
	verified, protected, followers_count, following_count, tweet_count,
	listed_count, is_seed, scrape_status, scraped_at, created_at,
	bio_sentiment, bio_sentiment_score, bio_sentiment_analyzed_at
`

// AccountStore implements storage for accounts and follow edges
type AccountStore struct {
	db *pgxpool.Pool
}

// NewAccountStore creates a new account store
func NewAccountStore(db *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		db: db,
	}
}

// UpsertAccount inserts or updates an account. Re-scraping an account
// discovered through the graph never demotes is_seed back to false.
func (s *AccountStore) UpsertAccount(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (
			id, username, name, description, location, url, profile_image_url,
			verified, protected, followers_count, following_count, tweet_count,
			listed_count, is_seed, scrape_status, scraped_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16
		)
		ON CONFLICT (id) DO UPDATE
		SET
			username = $2,
			name = $3,
			description = $4,
			location = $5,
			url = $6,
			profile_image_url = $7,
			verified = $8,
			protected = $9,
			followers_count = $10,
			following_count = $11,
			tweet_count = $12,
			listed_count = $13,
			is_seed = accounts.is_seed OR $14,
			scrape_status = $15,
			scraped_at = COALESCE($16, accounts.scraped_at)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		a.ID,
		a.Username,
		a.Name,
		a.Description,
		a.Location,
		a.URL,
		a.ProfileImageURL,
		a.Verified,
		a.Protected,
		a.FollowersCount,
		a.FollowingCount,
		a.TweetCount,
		a.ListedCount,
		a.IsSeed,
		a.ScrapeStatus,
		a.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by ID
func (s *AccountStore) GetAccount(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error querying account: %w", err)
	}

	return a, nil
}

// GetAccountByUsername retrieves an account by username
func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`

	a, err := scanAccount(s.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account @%s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("error querying account: %w", err)
	}

	return a, nil
}

// ListAccounts returns all accounts, optionally seeds only
func (s *AccountStore) ListAccounts(ctx context.Context, seedsOnly bool) ([]account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if seedsOnly {
		query += ` WHERE is_seed`
	}
	query += ` ORDER BY followers_count DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying accounts: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListUnanalyzedBios returns accounts with a non-empty bio and no bio
// sentiment yet.
func (s *AccountStore) ListUnanalyzedBios(ctx context.Context) ([]account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE bio_sentiment IS NULL AND description <> ''
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying unanalyzed bios: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// UpsertFollow records a follow edge, ignoring duplicates.
func (s *AccountStore) UpsertFollow(ctx context.Context, followerID, followingID int64) error {
	query := `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
	`

	_, err := s.db.Exec(ctx, query, followerID, followingID)
	if err != nil {
		return fmt.Errorf("error upserting follow: %w", err)
	}

	return nil
}

// ListFollowing returns accounts the given account follows.
func (s *AccountStore) ListFollowing(ctx context.Context, accountID int64) ([]account.Account, error) {
	query := `
		SELECT ` + qualifiedAccountColumns("a") + `
		FROM accounts a
		JOIN follows f ON f.following_id = a.id
		WHERE f.follower_id = $1
		ORDER BY a.followers_count DESC
	`

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying following: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListFollowers returns accounts following the given account.
func (s *AccountStore) ListFollowers(ctx context.Context, accountID int64) ([]account.Account, error) {
	query := `
		SELECT ` + qualifiedAccountColumns("a") + `
		FROM accounts a
		JOIN follows f ON f.follower_id = a.id
		WHERE f.following_id = $1
		ORDER BY a.followers_count DESC
	`

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying followers: %w", err)
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListFollows returns every follow edge, for graph rendering.
func (s *AccountStore) ListFollows(ctx context.Context) ([]account.Follow, error) {
	query := `SELECT follower_id, following_id, discovered_at FROM follows`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying follows: %w", err)
	}
	defer rows.Close()

	var follows []account.Follow
	for rows.Next() {
		var f account.Follow
		if err := rows.Scan(&f.FollowerID, &f.FollowingID, &f.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("error scanning follow: %w", err)
		}
		follows = append(follows, f)
	}

	return follows, rows.Err()
}

// CountAccounts returns the total number of accounts.
func (s *AccountStore) CountAccounts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting accounts: %w", err)
	}
	return count, nil
}

// CountSeeds returns the number of seed accounts.
func (s *AccountStore) CountSeeds(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE is_seed`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting seeds: %w", err)
	}
	return count, nil
}

// CountFollows returns the total number of follow edges.
func (s *AccountStore) CountFollows(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM follows`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting follows: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var a account.Account
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Name,
		&a.Description,
		&a.Location,
		&a.URL,
		&a.ProfileImageURL,
		&a.Verified,
		&a.Protected,
		&a.FollowersCount,
		&a.FollowingCount,
		&a.TweetCount,
		&a.ListedCount,
		&a.IsSeed,
		&a.ScrapeStatus,
		&a.ScrapedAt,
		&a.CreatedAt,
		&a.BioSentiment,
		&a.BioSentimentScore,
		&a.BioSentimentAnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]account.Account, error) {
	var accounts []account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func qualifiedAccountColumns(alias string) string {
	return fmt.Sprintf(`
		%[1]s.id, %[1]s.username, %[1]s.name, %[1]s.description, %[1]s.location, %[1]s.url, %[1]s.profile_image_url,
		%[1]s.verified, %[1]s.protected, %[1]s.followers_count, %[1]s.following_count, %[1]s.tweet_count,
		%[1]s.listed_count, %[1]s.is_seed, %[1]s.scrape_status, %[1]s.scraped_at, %[1]s.created_at,
		%[1]s.bio_sentiment, %[1]s.bio_sentiment_score, %[1]s.bio_sentiment_analyzed_at
	`, alias)
}
