// internal/server/handlers/camp_test.go

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/camp"
)

type fakeCampStore struct {
	camps    map[string]*camp.Camp
	keywords map[int][]camp.Keyword
	nextID   int
}

func newFakeCampStore() *fakeCampStore {
	return &fakeCampStore{
		camps:    make(map[string]*camp.Camp),
		keywords: make(map[int][]camp.Keyword),
		nextID:   1,
	}
}

func (s *fakeCampStore) CreateCamp(ctx context.Context, c *camp.Camp) error {
	c.ID = s.nextID
	s.nextID++
	s.camps[c.Slug] = c
	return nil
}

func (s *fakeCampStore) GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error) {
	c, ok := s.camps[slug]
	if !ok {
		return nil, fmt.Errorf("camp %q: %w", slug, storage.ErrNotFound)
	}
	return c, nil
}

func (s *fakeCampStore) ListCamps(ctx context.Context) ([]camp.Camp, error) {
	var out []camp.Camp
	for _, c := range s.camps {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeCampStore) UpdateCamp(ctx context.Context, c *camp.Camp) error { return nil }

func (s *fakeCampStore) DeleteCamp(ctx context.Context, id int) error {
	for slug, c := range s.camps {
		if c.ID == id {
			delete(s.camps, slug)
		}
	}
	return nil
}

func (s *fakeCampStore) AddKeyword(ctx context.Context, k *camp.Keyword) error {
	k.ID = s.nextID
	s.nextID++
	s.keywords[k.CampID] = append(s.keywords[k.CampID], *k)
	return nil
}

func (s *fakeCampStore) UpdateKeyword(ctx context.Context, k *camp.Keyword) error { return nil }
func (s *fakeCampStore) DeleteKeyword(ctx context.Context, id int) error          { return nil }

func (s *fakeCampStore) ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error) {
	return s.keywords[campID], nil
}

func (s *fakeCampStore) ListAllKeywords(ctx context.Context) ([]camp.Keyword, error) {
	var out []camp.Keyword
	for _, list := range s.keywords {
		out = append(out, list...)
	}
	return out, nil
}

func newCampRouter(store CampStore) http.Handler {
	h := NewCampHandler(store)
	r := chi.NewRouter()
	r.Get("/camps", h.ListCamps)
	r.Post("/camps", h.CreateCamp)
	r.Get("/camps/{slug}", h.GetCamp)
	r.Put("/camps/{slug}", h.UpdateCamp)
	r.Delete("/camps/{slug}", h.DeleteCamp)
	r.Post("/camps/{slug}/keywords", h.AddKeyword)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCamp(t *testing.T) {
	store := newFakeCampStore()
	router := newCampRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/camps", `{"name": "AI Optimists", "slug": "ai-optimists"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created camp.Camp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "AI Optimists", created.Name)
	assert.Equal(t, "#3b82f6", created.Color)
	assert.NotZero(t, created.ID)
}

func TestCreateCampValidation(t *testing.T) {
	router := newCampRouter(newFakeCampStore())

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing name", `{"slug": "x"}`, http.StatusBadRequest},
		{"missing slug", `{"name": "x"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/camps", tt.body)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestCreateCampDuplicateSlug(t *testing.T) {
	store := newFakeCampStore()
	router := newCampRouter(store)

	first := doRequest(t, router, http.MethodPost, "/camps", `{"name": "A", "slug": "dup"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(t, router, http.MethodPost, "/camps", `{"name": "B", "slug": "dup"}`)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestGetCampNotFound(t *testing.T) {
	router := newCampRouter(newFakeCampStore())

	rec := doRequest(t, router, http.MethodGet, "/camps/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCampIncludesKeywords(t *testing.T) {
	store := newFakeCampStore()
	store.camps["ai-optimists"] = &camp.Camp{ID: 1, Name: "AI Optimists", Slug: "ai-optimists"}
	store.keywords[1] = []camp.Keyword{{ID: 2, Term: "AGI", CampID: 1, Weight: 1}}
	router := newCampRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/camps/ai-optimists", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name     string         `json:"name"`
		Keywords []camp.Keyword `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AI Optimists", body.Name)
	require.Len(t, body.Keywords, 1)
	assert.Equal(t, "AGI", body.Keywords[0].Term)
}

func TestAddKeyword(t *testing.T) {
	store := newFakeCampStore()
	store.camps["ai-optimists"] = &camp.Camp{ID: 1, Name: "AI Optimists", Slug: "ai-optimists"}
	router := newCampRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/camps/ai-optimists/keywords", `{"term": "AGI"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created camp.Keyword
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "AGI", created.Term)
	assert.Equal(t, camp.SentimentAny, created.ExpectedSentiment)
	assert.InDelta(t, 1.0, created.Weight, 1e-9)
	assert.Equal(t, 1, created.CampID)
}

func TestAddKeywordValidation(t *testing.T) {
	store := newFakeCampStore()
	store.camps["c"] = &camp.Camp{ID: 1, Slug: "c"}
	router := newCampRouter(store)

	tests := []struct {
		name string
		body string
	}{
		{"missing term", `{}`},
		{"negative weight", `{"term": "AI", "weight": -1}`},
		{"invalid sentiment", `{"term": "AI", "expected_sentiment": "angry"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/camps/c/keywords", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteCamp(t *testing.T) {
	store := newFakeCampStore()
	store.camps["gone"] = &camp.Camp{ID: 1, Slug: "gone"}
	router := newCampRouter(store)

	rec := doRequest(t, router, http.MethodDelete, "/camps/gone", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, store.camps, "gone")
}
