// internal/server/handlers/scrape.go

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"campwatch/internal/domain/account"
	"campwatch/internal/service/scraper"
)

// Scraper fetches accounts and their network from the platform API
type Scraper interface {
	ScrapeAccount(ctx context.Context, username string, includeTweets, includeFollowing, includeFollowers bool) (*account.Account, scraper.Stats, error)
}

// ScrapeHandler handles scrape HTTP requests
type ScrapeHandler struct {
	scraper Scraper
}

// NewScrapeHandler creates a new scrape handler. scraper may be nil
// when no API credentials are configured.
func NewScrapeHandler(s Scraper) *ScrapeHandler {
	return &ScrapeHandler{
		scraper: s,
	}
}

type scrapeRequest struct {
	Username         string `json:"username"`
	IncludeTweets    *bool  `json:"include_tweets"`
	IncludeFollowing *bool  `json:"include_following"`
	IncludeFollowers *bool  `json:"include_followers"`
}

// Scrape fetches an account and its network
func (h *ScrapeHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	if h.scraper == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Scraper is not configured", nil)
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" {
		respondWithError(w, http.StatusBadRequest, "Username is required", nil)
		return
	}

	includeTweets := req.IncludeTweets == nil || *req.IncludeTweets
	includeFollowing := req.IncludeFollowing == nil || *req.IncludeFollowing
	includeFollowers := req.IncludeFollowers == nil || *req.IncludeFollowers

	acct, stats, err := h.scraper.ScrapeAccount(r.Context(), req.Username, includeTweets, includeFollowing, includeFollowers)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Scrape failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"account": acct,
		"stats":   stats,
	})
}
