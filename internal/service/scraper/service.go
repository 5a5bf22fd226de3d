// internal/service/scraper/service.go

package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"

	"campwatch/internal/domain/account"
)

const twitterAPIHost = "https://api.twitter.com"

// Store persists scraped accounts, tweets and follow edges.
type Store interface {
	UpsertAccount(ctx context.Context, a *account.Account) error
	UpsertTweet(ctx context.Context, t *account.Tweet) error
	UpsertFollow(ctx context.Context, followerID, followingID int64) error
	GetAccountByUsername(ctx context.Context, username string) (*account.Account, error)
}

// Config contains configuration for the scraper service.
type Config struct {
	BearerToken  string
	MaxTweets    int
	MaxFollowing int
	MaxFollowers int
}

// Stats summarizes one scrape.
type Stats struct {
	AccountScraped     bool     `json:"account_scraped"`
	TweetsAdded        int      `json:"tweets_added"`
	FollowingAdded     int      `json:"following_added"`
	FollowersAdded     int      `json:"followers_added"`
	ConnectionsScraped int      `json:"connections_scraped"`
	Errors             []string `json:"errors,omitempty"`
}

// Service fetches accounts, tweets and the surrounding follow graph
// from the platform API and persists them.
type Service struct {
	client *twitter.Client
	store  Store
	config Config
}

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// NewService creates a scraper service. The bearer token is required.
func NewService(store Store, cfg Config) (*Service, error) {
	if cfg.BearerToken == "" {
		return nil, errors.New("scraper: bearer token is required")
	}
	if cfg.MaxTweets <= 0 {
		cfg.MaxTweets = 25
	}
	if cfg.MaxFollowing <= 0 {
		cfg.MaxFollowing = 25
	}
	if cfg.MaxFollowers <= 0 {
		cfg.MaxFollowers = 25
	}

	client := &twitter.Client{
		Authorizer: bearerAuthorizer{token: cfg.BearerToken},
		Client:     &http.Client{Timeout: 30 * time.Second},
		Host:       twitterAPIHost,
	}

	return &Service{
		client: client,
		store:  store,
		config: cfg,
	}, nil
}

// ScrapeAccount fetches an account by username, stores it as a seed and
// optionally pulls its recent tweets and follow graph. Discovered
// connections are stored as non-seed accounts; a connection already
// marked as seed stays a seed.
func (s *Service) ScrapeAccount(ctx context.Context, username string, includeTweets, includeFollowing, includeFollowers bool) (*account.Account, Stats, error) {
	var stats Stats

	log.Printf("fetching @%s...", username)
	seed, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, stats, fmt.Errorf("fetching user @%s: %w", username, err)
	}

	seed.IsSeed = true
	if err := s.store.UpsertAccount(ctx, seed); err != nil {
		return nil, stats, fmt.Errorf("saving account @%s: %w", username, err)
	}
	stats.AccountScraped = true

	var discovered []int64

	if includeTweets {
		added, err := s.scrapeTweets(ctx, seed.ID)
		if err != nil {
			stats.Errors = append(stats.Errors, err.Error())
		}
		stats.TweetsAdded = added
	}

	if includeFollowing {
		users, err := s.fetchFollowing(ctx, seed.ID)
		if err != nil {
			stats.Errors = append(stats.Errors, err.Error())
		}
		for _, u := range users {
			if err := s.store.UpsertAccount(ctx, u); err != nil {
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			if err := s.store.UpsertFollow(ctx, seed.ID, u.ID); err != nil {
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			discovered = append(discovered, u.ID)
			stats.FollowingAdded++
		}
	}

	if includeFollowers {
		users, err := s.fetchFollowers(ctx, seed.ID)
		if err != nil {
			stats.Errors = append(stats.Errors, err.Error())
		}
		for _, u := range users {
			if err := s.store.UpsertAccount(ctx, u); err != nil {
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			if err := s.store.UpsertFollow(ctx, u.ID, seed.ID); err != nil {
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			discovered = append(discovered, u.ID)
			stats.FollowersAdded++
		}
	}

	if includeTweets && len(discovered) > 0 {
		seen := make(map[int64]struct{}, len(discovered))
		for _, id := range discovered {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			if _, err := s.scrapeTweets(ctx, id); err != nil {
				stats.Errors = append(stats.Errors, err.Error())
				continue
			}
			stats.ConnectionsScraped++
		}
		log.Printf("scraped tweets for %d connections", stats.ConnectionsScraped)
	}

	saved, err := s.store.GetAccountByUsername(ctx, seed.Username)
	if err != nil {
		return seed, stats, nil
	}

	return saved, stats, nil
}

func (s *Service) lookupUser(ctx context.Context, username string) (*account.Account, error) {
	resp, err := s.client.UserNameLookup(ctx, []string{username}, twitter.UserLookupOpts{
		UserFields: userFields(),
	})
	if err != nil {
		return nil, err
	}
	if resp.Raw == nil || len(resp.Raw.Users) == 0 {
		return nil, fmt.Errorf("user @%s not found", username)
	}

	return mapUser(resp.Raw.Users[0])
}

func (s *Service) scrapeTweets(ctx context.Context, accountID int64) (int, error) {
	resp, err := s.client.UserTweetTimeline(ctx, strconv.FormatInt(accountID, 10), twitter.UserTweetTimelineOpts{
		MaxResults:  s.config.MaxTweets,
		TweetFields: tweetFields(),
	})
	if err != nil {
		return 0, fmt.Errorf("fetching tweets for account %d: %w", accountID, err)
	}
	if resp.Raw == nil {
		return 0, nil
	}

	added := 0
	for _, obj := range resp.Raw.Tweets {
		t, err := mapTweet(obj, accountID)
		if err != nil {
			log.Printf("skipping malformed tweet: %v", err)
			continue
		}
		if err := s.store.UpsertTweet(ctx, t); err != nil {
			return added, fmt.Errorf("saving tweet %d: %w", t.ID, err)
		}
		added++
	}

	return added, nil
}

func (s *Service) fetchFollowing(ctx context.Context, accountID int64) ([]*account.Account, error) {
	resp, err := s.client.UserFollowingLookup(ctx, strconv.FormatInt(accountID, 10), twitter.UserFollowingLookupOpts{
		MaxResults: s.config.MaxFollowing,
		UserFields: userFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching following for account %d: %w", accountID, err)
	}
	if resp.Raw == nil {
		return nil, nil
	}

	return mapUsers(resp.Raw.Users), nil
}

func (s *Service) fetchFollowers(ctx context.Context, accountID int64) ([]*account.Account, error) {
	resp, err := s.client.UserFollowersLookup(ctx, strconv.FormatInt(accountID, 10), twitter.UserFollowersLookupOpts{
		MaxResults: s.config.MaxFollowers,
		UserFields: userFields(),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching followers for account %d: %w", accountID, err)
	}
	if resp.Raw == nil {
		return nil, nil
	}

	return mapUsers(resp.Raw.Users), nil
}

func userFields() []twitter.UserField {
	return []twitter.UserField{
		twitter.UserFieldID,
		twitter.UserFieldUserName,
		twitter.UserFieldName,
		twitter.UserFieldDescription,
		twitter.UserFieldLocation,
		twitter.UserFieldURL,
		twitter.UserFieldProfileImageURL,
		twitter.UserFieldVerified,
		twitter.UserFieldProtected,
		twitter.UserFieldPublicMetrics,
	}
}

func tweetFields() []twitter.TweetField {
	return []twitter.TweetField{
		twitter.TweetFieldID,
		twitter.TweetFieldText,
		twitter.TweetFieldLanguage,
		twitter.TweetFieldConversationID,
		twitter.TweetFieldPublicMetrics,
		twitter.TweetFieldCreatedAt,
	}
}

func mapUser(obj *twitter.UserObj) (*account.Account, error) {
	if obj == nil {
		return nil, errors.New("empty user object")
	}

	id, err := strconv.ParseInt(obj.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing user id %q: %w", obj.ID, err)
	}

	now := time.Now().UTC()
	a := &account.Account{
		ID:              id,
		Username:        obj.UserName,
		Name:            obj.Name,
		Description:     obj.Description,
		Location:        obj.Location,
		URL:             obj.URL,
		ProfileImageURL: obj.ProfileImageURL,
		Verified:        obj.Verified,
		Protected:       obj.Protected,
		ScrapeStatus:    "scraped",
		ScrapedAt:       &now,
	}

	if m := obj.PublicMetrics; m != nil {
		a.FollowersCount = m.Followers
		a.FollowingCount = m.Following
		a.TweetCount = m.Tweets
		a.ListedCount = m.Listed
	}

	return a, nil
}

func mapUsers(objs []*twitter.UserObj) []*account.Account {
	accounts := make([]*account.Account, 0, len(objs))
	for _, obj := range objs {
		a, err := mapUser(obj)
		if err != nil {
			log.Printf("skipping malformed user: %v", err)
			continue
		}
		accounts = append(accounts, a)
	}
	return accounts
}

func mapTweet(obj *twitter.TweetObj, accountID int64) (*account.Tweet, error) {
	if obj == nil {
		return nil, errors.New("empty tweet object")
	}

	id, err := strconv.ParseInt(obj.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing tweet id %q: %w", obj.ID, err)
	}

	t := &account.Tweet{
		ID:        id,
		AccountID: accountID,
		Text:      obj.Text,
		Lang:      obj.Language,
	}

	if obj.ConversationID != "" {
		if convID, err := strconv.ParseInt(obj.ConversationID, 10, 64); err == nil {
			t.ConversationID = convID
		}
	}

	if obj.CreatedAt != "" {
		if postedAt, err := time.Parse(time.RFC3339, obj.CreatedAt); err == nil {
			t.PostedAt = &postedAt
		}
	}

	if m := obj.PublicMetrics; m != nil {
		t.RetweetCount = m.Retweets
		t.ReplyCount = m.Replies
		t.LikeCount = m.Likes
		t.QuoteCount = m.Quotes
	}

	return t, nil
}
