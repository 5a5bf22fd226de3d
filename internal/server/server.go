// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"campwatch/internal/config"
	"campwatch/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies collects everything the HTTP layer serves.
type Dependencies struct {
	Accounts  handlers.AccountStore
	Tweets    handlers.TweetStore
	Camps     campStores
	Analysis  handlers.AnalysisService
	Sentiment handlers.SentimentService
	Scraper   handlers.Scraper
	NATS      *nats.Conn
}

// campStores is the union of camp persistence the handlers need.
type campStores interface {
	handlers.CampStore
	handlers.CampLookup
	handlers.StatsStore
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, eventsTopic string, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	accountHandler := handlers.NewAccountHandler(deps.Accounts, deps.Tweets, deps.Camps)
	campHandler := handlers.NewCampHandler(deps.Camps)
	analysisHandler := handlers.NewAnalysisHandler(deps.Analysis, deps.Sentiment, deps.Camps, deps.Accounts)
	scrapeHandler := handlers.NewScrapeHandler(deps.Scraper)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Get("/stats", accountHandler.GetStats)

			// Accounts API
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", accountHandler.ListAccounts)
				r.Get("/{username}", accountHandler.GetAccount)
				r.Get("/{username}/tweets", accountHandler.GetAccountTweets)
				r.Get("/{username}/following", accountHandler.GetAccountFollowing)
				r.Get("/{username}/followers", accountHandler.GetAccountFollowers)
				r.Get("/{username}/analysis", analysisHandler.GetAccountAnalysis)
			})

			// Scraping API
			r.Post("/scrape", scrapeHandler.Scrape)

			// Graph API
			r.Route("/graph", func(r chi.Router) {
				r.Get("/", accountHandler.GetGraph)
				r.Get("/{username}", accountHandler.GetAccountGraph)
			})

			// Camps API
			r.Route("/camps", func(r chi.Router) {
				r.Get("/", campHandler.ListCamps)
				r.Post("/", campHandler.CreateCamp)
				r.Get("/{slug}", campHandler.GetCamp)
				r.Put("/{slug}", campHandler.UpdateCamp)
				r.Delete("/{slug}", campHandler.DeleteCamp)

				// Camp keywords
				r.Post("/{slug}/keywords", campHandler.AddKeyword)
				r.Put("/{slug}/keywords/{keywordID}", campHandler.UpdateKeyword)
				r.Delete("/{slug}/keywords/{keywordID}", campHandler.DeleteKeyword)

				// Camp analysis
				r.Get("/{slug}/leaderboard", analysisHandler.GetCampLeaderboard)
				r.Get("/{slug}/top-tweets", analysisHandler.GetCampTopTweets)
				r.Post("/{slug}/sentiment/analyze", analysisHandler.AnalyzeCampSentiment)
			})

			// Keywords API
			r.Get("/keywords", campHandler.ListKeywords)

			// Analysis API
			r.Post("/analyze", analysisHandler.Analyze)
			r.Route("/sentiment", func(r chi.Router) {
				r.Post("/analyze", analysisHandler.AnalyzeSentiment)
				r.Get("/stats", analysisHandler.GetSentimentStats)
			})
		})
	})

	// WebSocket endpoint for real-time analysis events
	router.Get("/ws/analysis", handlers.AnalysisWebSocketHandler(deps.NATS, eventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
