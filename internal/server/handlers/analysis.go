// internal/server/handlers/analysis.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/account"
	"campwatch/internal/domain/camp"
	"campwatch/internal/service/analysis"
	"campwatch/internal/service/sentiment"
)

// AnalysisService runs keyword scoring and serves score queries
type AnalysisService interface {
	AnalyzeAndSave(ctx context.Context, acct *account.Account) ([]camp.AccountCampScore, error)
	AnalyzeAllAccounts(ctx context.Context) (analysis.RunStats, error)
	GetCampLeaderboard(ctx context.Context, campID, limit int) ([]camp.LeaderboardEntry, error)
	GetCampTopTweets(ctx context.Context, campID, limit int) ([]camp.TopTweet, error)
	GetAccountScores(ctx context.Context, accountID int64) ([]camp.AccountCampScore, error)
}

// SentimentService runs LLM sentiment passes and serves coverage stats
type SentimentService interface {
	AnalyzeAll(ctx context.Context) (sentiment.RunStats, error)
	AnalyzeCamp(ctx context.Context, campID int) (sentiment.CampRunStats, error)
	Stats(ctx context.Context) (sentiment.Stats, error)
}

// CampLookup resolves camp slugs for analysis routes
type CampLookup interface {
	GetCampBySlug(ctx context.Context, slug string) (*camp.Camp, error)
	GetCamp(ctx context.Context, id int) (*camp.Camp, error)
}

// AccountLookup resolves usernames for analysis routes
type AccountLookup interface {
	GetAccountByUsername(ctx context.Context, username string) (*account.Account, error)
}

// AnalysisHandler handles analysis and sentiment HTTP requests
type AnalysisHandler struct {
	analysis  AnalysisService
	sentiment SentimentService
	camps     CampLookup
	accounts  AccountLookup
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analysisService AnalysisService, sentimentService SentimentService, camps CampLookup, accounts AccountLookup) *AnalysisHandler {
	return &AnalysisHandler{
		analysis:  analysisService,
		sentiment: sentimentService,
		camps:     camps,
		accounts:  accounts,
	}
}

type analyzeRequest struct {
	Username string `json:"username"`
}

// Analyze scores one account when a username is given, otherwise runs
// the full sentiment-then-score pass over every account.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Username != "" {
		acct, err := h.accounts.GetAccountByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Account not found", nil)
			} else {
				respondWithError(w, http.StatusInternalServerError, "Failed to get account", err)
			}
			return
		}

		scores, err := h.analysis.AnalyzeAndSave(r.Context(), acct)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Analysis failed", err)
			return
		}

		respondWithJSON(w, http.StatusOK, map[string]int{
			"analyzed":     1,
			"total_scores": len(scores),
		})
		return
	}

	stats, err := h.analysis.AnalyzeAllAccounts(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Analysis failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetAccountAnalysis returns an account's camp scores with match details
func (h *AnalysisHandler) GetAccountAnalysis(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	acct, err := h.accounts.GetAccountByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get account", err)
		}
		return
	}

	scores, err := h.analysis.GetAccountScores(r.Context(), acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get scores", err)
		return
	}

	scoreList := make([]map[string]interface{}, 0, len(scores))
	for _, sc := range scores {
		c, err := h.camps.GetCamp(r.Context(), sc.CampID)
		if err != nil {
			continue
		}

		bioMatches := sc.MatchDetails.BioMatches
		if bioMatches == nil {
			bioMatches = []camp.MatchDetail{}
		}
		tweetMatches := sc.MatchDetails.TweetMatches
		if tweetMatches == nil {
			tweetMatches = []camp.MatchDetail{}
		}

		scoreList = append(scoreList, map[string]interface{}{
			"camp_id":       c.ID,
			"camp_name":     c.Name,
			"camp_color":    c.Color,
			"score":         sc.Score,
			"bio_score":     sc.BioScore,
			"tweet_score":   sc.TweetScore,
			"bio_matches":   bioMatches,
			"tweet_matches": tweetMatches,
		})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"account": acct,
		"scores":  scoreList,
	})
}

// GetCampLeaderboard returns the top scoring accounts for a camp
func (h *AnalysisHandler) GetCampLeaderboard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	limit := parseLimit(r, 20)
	entries, err := h.analysis.GetCampLeaderboard(r.Context(), c.ID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get leaderboard", err)
		return
	}

	ranked := make([]map[string]interface{}, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, map[string]interface{}{
			"rank":        i + 1,
			"account":     e.Account,
			"score":       e.Score,
			"bio_score":   e.BioScore,
			"tweet_score": e.TweetScore,
		})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"camp":    c,
		"entries": ranked,
	})
}

// GetCampTopTweets returns the highest weighted matching tweets for a camp
func (h *AnalysisHandler) GetCampTopTweets(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	limit := parseLimit(r, 20)
	tweets, err := h.analysis.GetCampTopTweets(r.Context(), c.ID, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get top tweets", err)
		return
	}
	if tweets == nil {
		tweets = []camp.TopTweet{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"camp":   c,
		"tweets": tweets,
	})
}

// AnalyzeSentiment runs the sentiment pass over every candidate tweet
// and bio.
func (h *AnalysisHandler) AnalyzeSentiment(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sentiment.AnalyzeAll(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sentiment analysis failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// AnalyzeCampSentiment runs the sentiment pass over tweets matching one
// camp's keywords.
func (h *AnalysisHandler) AnalyzeCampSentiment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.lookupCamp(w, r)
	if !ok {
		return
	}

	stats, err := h.sentiment.AnalyzeCamp(r.Context(), c.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Sentiment analysis failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetSentimentStats returns sentiment coverage statistics
func (h *AnalysisHandler) GetSentimentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sentiment.Stats(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get sentiment stats", err)
		return
	}
	if stats.BySentiment == nil {
		stats.BySentiment = map[string]int{}
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func (h *AnalysisHandler) lookupCamp(w http.ResponseWriter, r *http.Request) (*camp.Camp, bool) {
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

func parseLimit(r *http.Request, def int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}
