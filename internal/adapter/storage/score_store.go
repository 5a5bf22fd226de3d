// internal/adapter/storage/score_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"campwatch/internal/domain/camp"
)

// ScoreStore implements storage for camp scores and tweet keyword matches
type ScoreStore struct {
	db *pgxpool.Pool
}

// NewScoreStore creates a new score store
func NewScoreStore(db *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{
		db: db,
	}
}

// SaveAnalysis upserts camp scores and records tweet keyword matches in
// one transaction. Scores overwrite the previous row for the same
// (account, camp) pair; matches are insert-or-ignore.
func (s *ScoreStore) SaveAnalysis(ctx context.Context, scores []camp.AccountCampScore, matches []camp.TweetKeywordMatch) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	scoreQuery := `
		INSERT INTO account_camp_scores (
			account_id, camp_id, score, bio_score, tweet_score, match_details, analyzed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account_id, camp_id) DO UPDATE
		SET
			score = $3,
			bio_score = $4,
			tweet_score = $5,
			match_details = $6,
			analyzed_at = $7
	`

	for _, sc := range scores {
		detailsJSON, err := json.Marshal(sc.MatchDetails)
		if err != nil {
			return fmt.Errorf("error marshaling match details: %w", err)
		}

		_, err = tx.Exec(
			ctx,
			scoreQuery,
			sc.AccountID,
			sc.CampID,
			sc.Score,
			sc.BioScore,
			sc.TweetScore,
			detailsJSON,
			sc.AnalyzedAt,
		)
		if err != nil {
			return fmt.Errorf("error upserting score: %w", err)
		}
	}

	matchQuery := `
		INSERT INTO tweet_keyword_matches (tweet_id, keyword_id)
		VALUES ($1, $2)
		ON CONFLICT (tweet_id, keyword_id) DO NOTHING
	`

	for _, m := range matches {
		if _, err := tx.Exec(ctx, matchQuery, m.TweetID, m.KeywordID); err != nil {
			return fmt.Errorf("error inserting tweet keyword match: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing analysis: %w", err)
	}

	return nil
}

// ListScoresByAccount returns all camp scores for an account.
func (s *ScoreStore) ListScoresByAccount(ctx context.Context, accountID int64) ([]camp.AccountCampScore, error) {
	query := `
		SELECT account_id, camp_id, score, bio_score, tweet_score, match_details, analyzed_at
		FROM account_camp_scores
		WHERE account_id = $1
		ORDER BY camp_id
	`

	rows, err := s.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying scores: %w", err)
	}
	defer rows.Close()

	var scores []camp.AccountCampScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning score: %w", err)
		}
		scores = append(scores, *sc)
	}

	return scores, rows.Err()
}

// Leaderboard returns accounts with a positive score for the camp,
// highest score first.
func (s *ScoreStore) Leaderboard(ctx context.Context, campID, limit int) ([]camp.LeaderboardEntry, error) {
	query := `
		SELECT
			` + qualifiedAccountColumns("a") + `,
			s.score, s.bio_score, s.tweet_score
		FROM account_camp_scores s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.camp_id = $1 AND s.score > 0
		ORDER BY s.score DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, campID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []camp.LeaderboardEntry
	for rows.Next() {
		var e camp.LeaderboardEntry
		err := rows.Scan(
			&e.Account.ID,
			&e.Account.Username,
			&e.Account.Name,
			&e.Account.Description,
			&e.Account.Location,
			&e.Account.URL,
			&e.Account.ProfileImageURL,
			&e.Account.Verified,
			&e.Account.Protected,
			&e.Account.FollowersCount,
			&e.Account.FollowingCount,
			&e.Account.TweetCount,
			&e.Account.ListedCount,
			&e.Account.IsSeed,
			&e.Account.ScrapeStatus,
			&e.Account.ScrapedAt,
			&e.Account.CreatedAt,
			&e.Account.BioSentiment,
			&e.Account.BioSentimentScore,
			&e.Account.BioSentimentAnalyzedAt,
			&e.Score,
			&e.BioScore,
			&e.TweetScore,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ListMatchesByKeywords returns recorded tweet matches for the given
// keywords.
func (s *ScoreStore) ListMatchesByKeywords(ctx context.Context, keywordIDs []int) ([]camp.TweetKeywordMatch, error) {
	ids := make([]int32, 0, len(keywordIDs))
	for _, id := range keywordIDs {
		ids = append(ids, int32(id))
	}

	query := `
		SELECT tweet_id, keyword_id
		FROM tweet_keyword_matches
		WHERE keyword_id = ANY($1)
	`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("error querying matches: %w", err)
	}
	defer rows.Close()

	var matches []camp.TweetKeywordMatch
	for rows.Next() {
		var m camp.TweetKeywordMatch
		if err := rows.Scan(&m.TweetID, &m.KeywordID); err != nil {
			return nil, fmt.Errorf("error scanning match: %w", err)
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// ListTweetIDsByKeywords returns the distinct tweet IDs with a recorded
// match for any of the given keywords.
func (s *ScoreStore) ListTweetIDsByKeywords(ctx context.Context, keywordIDs []int) ([]int64, error) {
	matches, err := s.ListMatchesByKeywords(ctx, keywordIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.TweetID]; ok {
			continue
		}
		seen[m.TweetID] = struct{}{}
		ids = append(ids, m.TweetID)
	}

	return ids, nil
}

func scanScore(row rowScanner) (*camp.AccountCampScore, error) {
	var sc camp.AccountCampScore
	var detailsJSON []byte

	err := row.Scan(
		&sc.AccountID,
		&sc.CampID,
		&sc.Score,
		&sc.BioScore,
		&sc.TweetScore,
		&detailsJSON,
		&sc.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &sc.MatchDetails); err != nil {
			return nil, fmt.Errorf("error unmarshaling match details: %w", err)
		}
	}

	return &sc, nil
}
