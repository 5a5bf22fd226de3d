// internal/server/handlers/camp.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/camp"
)

// CampStore provides camp and keyword persistence for the HTTP layer
type CampStore interface {
	CreateCamp(ctx context.Context, c *camp.Camp) error
	GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error)
	ListCamps(ctx context.Context) ([]camp.Camp, error)
	UpdateCamp(ctx context.Context, c *camp.Camp) error
	DeleteCamp(ctx context.Context, id int) error
	AddKeyword(ctx context.Context, k *camp.Keyword) error
	UpdateKeyword(ctx context.Context, k *camp.Keyword) error
	DeleteKeyword(ctx context.Context, id int) error
	ListKeywords(ctx context.Context, campID int) ([]camp.Keyword, error)
	ListAllKeywords(ctx context.Context) ([]camp.Keyword, error)
}

// CampHandler handles camp-related HTTP requests
type CampHandler struct {
	camps CampStore
}

// NewCampHandler creates a new camp handler
func NewCampHandler(camps CampStore) *CampHandler {
	return &CampHandler{
		camps: camps,
	}
}

// ListCamps returns all camps
func (h *CampHandler) ListCamps(w http.ResponseWriter, r *http.Request) {
	camps, err := h.camps.ListCamps(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list camps", err)
		return
	}
	if camps == nil {
		camps = []camp.Camp{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"camps": camps,
		"total": len(camps),
	})
}

type createCampRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CreateCamp creates a new camp
func (h *CampHandler) CreateCamp(w http.ResponseWriter, r *http.Request) {
	var req createCampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Slug == "" {
		respondWithError(w, http.StatusBadRequest, "Name and slug are required", nil)
		return
	}

	if _, err := h.camps.GetCampBySlug(r.Context(), req.Slug); err == nil {
		respondWithError(w, http.StatusConflict, "Camp with this slug already exists", nil)
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondWithError(w, http.StatusInternalServerError, "Failed to create camp", err)
		return
	}

	if req.Color == "" {
		req.Color = "#3b82f6"
	}

	c := &camp.Camp{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := h.camps.CreateCamp(r.Context(), c); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create camp", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

// GetCamp returns a camp with its keywords
func (h *CampHandler) GetCamp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	keywords, err := h.camps.ListKeywords(r.Context(), c.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list keywords", err)
		return
	}
	if keywords == nil {
		keywords = []camp.Keyword{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":          c.ID,
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"color":       c.Color,
		"created_at":  c.CreatedAt,
		"keywords":    keywords,
	})
}

type updateCampRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateCamp updates a camp's metadata
func (h *CampHandler) UpdateCamp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	var req updateCampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Color != nil {
		c.Color = *req.Color
	}

	if err := h.camps.UpdateCamp(r.Context(), c); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update camp", err)
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

// DeleteCamp deletes a camp and its keywords
func (h *CampHandler) DeleteCamp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	if err := h.camps.DeleteCamp(r.Context(), c.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete camp", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"slug":    c.Slug,
	})
}

// ListKeywords returns keywords across all camps
func (h *CampHandler) ListKeywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.camps.ListAllKeywords(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list keywords", err)
		return
	}
	if keywords == nil {
		keywords = []camp.Keyword{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"keywords": keywords,
		"total":    len(keywords),
	})
}

type addKeywordRequest struct {
	Term              string  `json:"term"`
	ExpectedSentiment string  `json:"expected_sentiment"`
	Weight            float64 `json:"weight"`
	CaseSensitive     bool    `json:"case_sensitive"`
}

// AddKeyword adds a keyword to a camp
func (h *CampHandler) AddKeyword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	var req addKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Term == "" {
		respondWithError(w, http.StatusBadRequest, "Term is required", nil)
		return
	}
	if req.Weight < 0 {
		respondWithError(w, http.StatusBadRequest, "Weight must be non-negative", nil)
		return
	}
	if req.Weight == 0 {
		req.Weight = 1.0
	}
	if req.ExpectedSentiment == "" {
		req.ExpectedSentiment = camp.SentimentAny
	}
	if !validExpectedSentiment(req.ExpectedSentiment) {
		respondWithError(w, http.StatusBadRequest, "Invalid expected_sentiment", nil)
		return
	}

	k := &camp.Keyword{
		Term:              req.Term,
		ExpectedSentiment: req.ExpectedSentiment,
		CaseSensitive:     req.CaseSensitive,
		CampID:            c.ID,
		Weight:            req.Weight,
	}
	if err := h.camps.AddKeyword(r.Context(), k); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to add keyword", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, k)
}

type updateKeywordRequest struct {
	Term              *string  `json:"term"`
	ExpectedSentiment *string  `json:"expected_sentiment"`
	Weight            *float64 `json:"weight"`
	CaseSensitive     *bool    `json:"case_sensitive"`
}

// UpdateKeyword updates a camp's keyword
func (h *CampHandler) UpdateKeyword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	keywordID, err := strconv.Atoi(chi.URLParam(r, "keywordID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid keyword ID", err)
		return
	}

	k, ok := h.findCampKeyword(w, r, c.ID, keywordID)
	if !ok {
		return
	}

	var req updateKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Term != nil {
		k.Term = *req.Term
	}
	if req.ExpectedSentiment != nil {
		if !validExpectedSentiment(*req.ExpectedSentiment) {
			respondWithError(w, http.StatusBadRequest, "Invalid expected_sentiment", nil)
			return
		}
		k.ExpectedSentiment = *req.ExpectedSentiment
	}
	if req.Weight != nil {
		if *req.Weight < 0 {
			respondWithError(w, http.StatusBadRequest, "Weight must be non-negative", nil)
			return
		}
		k.Weight = *req.Weight
	}
	if req.CaseSensitive != nil {
		k.CaseSensitive = *req.CaseSensitive
	}

	if err := h.camps.UpdateKeyword(r.Context(), k); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update keyword", err)
		return
	}

	respondWithJSON(w, http.StatusOK, k)
}

// DeleteKeyword removes a keyword from a camp
func (h *CampHandler) DeleteKeyword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	keywordID, err := strconv.Atoi(chi.URLParam(r, "keywordID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid keyword ID", err)
		return
	}

	if _, ok := h.findCampKeyword(w, r, c.ID, keywordID); !ok {
		return
	}

	if err := h.camps.DeleteKeyword(r.Context(), keywordID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete keyword", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":    true,
		"keyword_id": keywordID,
	})
}

func (h *CampHandler) lookupCamp(w http.ResponseWriter, r *http.Request) (*camp.Camp, bool) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "Missing camp slug", nil)
		return nil, false
	}

	c, err := h.camps.GetCampBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Camp not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get camp", err)
		}
		return nil, false
	}

	return c, true
}

// findCampKeyword verifies the keyword exists and belongs to the camp.
func (h *CampHandler) findCampKeyword(w http.ResponseWriter, r *http.Request, campID, keywordID int) (*camp.Keyword, bool) {
	keywords, err := h.camps.ListKeywords(r.Context(), campID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list keywords", err)
		return nil, false
	}

	for i := range keywords {
		if keywords[i].ID == keywordID {
			return &keywords[i], true
		}
	}

	respondWithError(w, http.StatusNotFound, "Keyword not found in camp", nil)
	return nil, false
}

func validExpectedSentiment(s string) bool {
	return s == camp.SentimentAny || camp.ValidSentiment(s)
}
