// internal/server/handlers/account.go

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/domain/account"
)

// AccountStore provides the account lookups the HTTP layer needs
type AccountStore interface {
	GetAccountByUsername(ctx context.Context, username string) (*account.Account, error)
	ListAccounts(ctx context.Context, seedsOnly bool) ([]account.Account, error)
	ListFollowing(ctx context.Context, accountID int64) ([]account.Account, error)
	ListFollowers(ctx context.Context, accountID int64) ([]account.Account, error)
	ListFollows(ctx context.Context) ([]account.Follow, error)
	CountAccounts(ctx context.Context) (int, error)
	CountSeeds(ctx context.Context) (int, error)
	CountFollows(ctx context.Context) (int, error)
}

// TweetStore provides the tweet lookups the HTTP layer needs
type TweetStore interface {
	ListTweetsByAccount(ctx context.Context, accountID int64) ([]account.Tweet, error)
	CountTweets(ctx context.Context) (int, error)
}

// StatsStore provides camp/keyword counts for the overview stats
type StatsStore interface {
	CountCamps(ctx context.Context) (int, error)
	CountKeywords(ctx context.Context) (int, error)
}

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accounts AccountStore
	tweets   TweetStore
	stats    StatsStore
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountStore, tweets TweetStore, stats StatsStore) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		tweets:   tweets,
		stats:    stats,
	}
}

// GetStats returns database statistics
func (h *AccountHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accounts.CountAccounts(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}
	seeds, err := h.accounts.CountSeeds(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}
	tweets, err := h.tweets.CountTweets(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}
	follows, err := h.accounts.CountFollows(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}
	camps, err := h.stats.CountCamps(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}
	keywords, err := h.stats.CountKeywords(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get stats", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{
		"accounts": accounts,
		"seeds":    seeds,
		"tweets":   tweets,
		"follows":  follows,
		"camps":    camps,
		"keywords": keywords,
	})
}

// ListAccounts returns all accounts, optionally seeds only
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	seedsOnly, _ := strconv.ParseBool(r.URL.Query().Get("seeds_only"))

	accounts, err := h.accounts.ListAccounts(r.Context(), seedsOnly)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}
	if accounts == nil {
		accounts = []account.Account{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// GetAccount returns an account by username
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, acct)
}

// GetAccountTweets returns an account's tweets
func (h *AccountHandler) GetAccountTweets(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	tweets, err := h.tweets.ListTweetsByAccount(r.Context(), acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list tweets", err)
		return
	}
	if tweets == nil {
		tweets = []account.Tweet{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tweets": tweets,
		"total":  len(tweets),
	})
}

// GetAccountFollowing returns the accounts this user follows
func (h *AccountHandler) GetAccountFollowing(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	following, err := h.accounts.ListFollowing(r.Context(), acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list following", err)
		return
	}
	if following == nil {
		following = []account.Account{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": following,
		"total":    len(following),
	})
}

// GetAccountFollowers returns the accounts following this user
func (h *AccountHandler) GetAccountFollowers(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}

	followers, err := h.accounts.ListFollowers(r.Context(), acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list followers", err)
		return
	}
	if followers == nil {
		followers = []account.Account{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": followers,
		"total":    len(followers),
	})
}

// GraphNode is one account in a rendered follow graph
type GraphNode struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	IsSeed          bool   `json:"is_seed"`
	FollowersCount  int    `json:"followers_count"`
	FollowingCount  int    `json:"following_count"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// GraphEdge is one follow edge in a rendered graph
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// GetGraph returns the full follow graph for visualization
func (h *AccountHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.accounts.ListAccounts(ctx, false)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}

	follows, err := h.accounts.ListFollows(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}

	respondWithJSON(w, http.StatusOK, buildGraph(accounts, follows, nil))
}

// GetAccountGraph returns the subgraph centered on one account
func (h *AccountHandler) GetAccountGraph(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.lookupAccount(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	following, err := h.accounts.ListFollowing(ctx, acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}
	followers, err := h.accounts.ListFollowers(ctx, acct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}

	members := map[int64]struct{}{acct.ID: {}}
	accounts := []account.Account{*acct}
	for _, a := range following {
		if _, ok := members[a.ID]; !ok {
			members[a.ID] = struct{}{}
			accounts = append(accounts, a)
		}
	}
	for _, a := range followers {
		if _, ok := members[a.ID]; !ok {
			members[a.ID] = struct{}{}
			accounts = append(accounts, a)
		}
	}

	follows, err := h.accounts.ListFollows(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build graph", err)
		return
	}

	respondWithJSON(w, http.StatusOK, buildGraph(accounts, follows, members))
}

// buildGraph assembles graph nodes and edges. When members is non-nil,
// edges are limited to pairs inside the member set.
func buildGraph(accounts []account.Account, follows []account.Follow, members map[int64]struct{}) map[string]interface{} {
	nodes := make([]GraphNode, 0, len(accounts))
	for _, a := range accounts {
		nodes = append(nodes, GraphNode{
			ID:              strconv.FormatInt(a.ID, 10),
			Username:        a.Username,
			Name:            a.Name,
			IsSeed:          a.IsSeed,
			FollowersCount:  a.FollowersCount,
			FollowingCount:  a.FollowingCount,
			ProfileImageURL: a.ProfileImageURL,
		})
	}

	edges := make([]GraphEdge, 0, len(follows))
	for _, f := range follows {
		if members != nil {
			if _, ok := members[f.FollowerID]; !ok {
				continue
			}
			if _, ok := members[f.FollowingID]; !ok {
				continue
			}
		}
		edges = append(edges, GraphEdge{
			Source: strconv.FormatInt(f.FollowerID, 10),
			Target: strconv.FormatInt(f.FollowingID, 10),
		})
	}

	return map[string]interface{}{
		"nodes": nodes,
		"edges": edges,
	}
}

func (h *AccountHandler) lookupAccount(w http.ResponseWriter, r *http.Request) (*account.Account, bool) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "Missing username", nil)
		return nil, false
	}

	acct, err := h.accounts.GetAccountByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Account not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get account", err)
		}
		return nil, false
	}

	return acct, true
}
