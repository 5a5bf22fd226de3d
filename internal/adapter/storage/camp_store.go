// internal/adapter/storage/camp_store.go

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"campwatch/internal/domain/camp"
)

// CampStore implements storage for camps and their keywords
type CampStore struct {
	db *pgxpool.Pool
}

// NewCampStore creates a new camp store
func NewCampStore(db *pgxpool.Pool) *CampStore {
	return &CampStore{
		db: db,
	}
}

// CreateCamp inserts a camp and fills in its generated ID.
func (s *CampStore) CreateCamp(ctx context.Context, c *camp.Camp) error {
	query := `
		INSERT INTO camps (name, slug, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query, c.Name, c.Slug, c.Description, c.Color).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating camp: %w", err)
	}

	return nil
}

// GetCamp retrieves a camp by ID
func (s *CampStore) GetCamp(ctx context.Context, id int) (*camp.Camp, error) {
	query := `SELECT id, name, slug, description, color, created_at FROM camps WHERE id = $1`

	c, err := scanCamp(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("camp %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("error querying camp: %w", err)
	}

	return c, nil
}

// GetCampBySlug retrieves a camp by slug
func (s *CampStore) GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error) {
	query := `SELECT id, name, slug, description, color, created_at FROM camps WHERE slug = $1`

	c, err := scanCamp(s.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("camp %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("error querying camp: %w", err)
	}

	return c, nil
}

// ListCamps returns all camps
func (s *CampStore) ListCamps(ctx context.Context) ([]camp.Camp, error) {
	query := `SELECT id, name, slug, description, color, created_at FROM camps ORDER BY id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying camps: %w", err)
	}
	defer rows.Close()

	var camps []camp.Camp
	for rows.Next() {
		c, err := scanCamp(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning camp: %w", err)
		}
		camps = append(camps, *c)
	}

	return camps, rows.Err()
}

// UpdateCamp updates a camp's name, description and color.
func (s *CampStore) UpdateCamp(ctx context.Context, c *camp.Camp) error {
	query := `
		UPDATE camps
		SET name = $2, description = $3, color = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, c.ID, c.Name, c.Description, c.Color)
	if err != nil {
		return fmt.Errorf("error updating camp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("camp %d: %w", c.ID, ErrNotFound)
	}

	return nil
}

// DeleteCamp removes a camp and, through cascades, its keywords, scores
// and recorded matches.
func (s *CampStore) DeleteCamp(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM camps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting camp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("camp %d: %w", id, ErrNotFound)
	}
	return nil
}

// AddKeyword inserts a keyword and fills in its generated ID.
func (s *CampStore) AddKeyword(ctx context.Context, k *camp.Keyword) error {
	query := `
		INSERT INTO keywords (term, expected_sentiment, case_sensitive, camp_id, weight)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query, k.Term, k.ExpectedSentiment, k.CaseSensitive, k.CampID, k.Weight).
		Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return fmt.Errorf("error adding keyword: %w", err)
	}

	return nil
}

// UpdateKeyword updates a keyword's term, sentiment, sensitivity and
// weight. Edits take effect on the next analysis run.
func (s *CampStore) UpdateKeyword(ctx context.Context, k *camp.Keyword) error {
	query := `
		UPDATE keywords
		SET term = $2, expected_sentiment = $3, case_sensitive = $4, weight = $5
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, k.ID, k.Term, k.ExpectedSentiment, k.CaseSensitive, k.Weight)
	if err != nil {
		return fmt.Errorf("error updating keyword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("keyword %d: %w", k.ID, ErrNotFound)
	}

	return nil
}

// DeleteKeyword removes a keyword.
func (s *CampStore) DeleteKeyword(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting keyword: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("keyword %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListKeywords returns a camp's keywords
func (s *CampStore) ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error) {
	query := `
		SELECT id, term, expected_sentiment, case_sensitive, camp_id, weight, created_at
		FROM keywords
		WHERE camp_id = $1
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query, campID)
	if err != nil {
		return nil, fmt.Errorf("error querying keywords: %w", err)
	}
	defer rows.Close()

	return collectKeywords(rows)
}

// ListAllKeywords returns keywords across all camps
func (s *CampStore) ListAllKeywords(ctx context.Context) ([]camp.Keyword, error) {
	query := `
		SELECT id, term, expected_sentiment, case_sensitive, camp_id, weight, created_at
		FROM keywords
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying keywords: %w", err)
	}
	defer rows.Close()

	return collectKeywords(rows)
}

// CountKeywords returns the total number of keywords.
func (s *CampStore) CountKeywords(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting keywords: %w", err)
	}
	return count, nil
}

// CountCamps returns the total number of camps.
func (s *CampStore) CountCamps(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM camps`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting camps: %w", err)
	}
	return count, nil
}

func scanCamp(row rowScanner) (*camp.Camp, error) {
	var c camp.Camp
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Color, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectKeywords(rows pgx.Rows) ([]camp.Keyword, error) {
	var keywords []camp.Keyword
	for rows.Next() {
		var k camp.Keyword
		err := rows.Scan(&k.ID, &k.Term, &k.ExpectedSentiment, &k.CaseSensitive, &k.CampID, &k.Weight, &k.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
