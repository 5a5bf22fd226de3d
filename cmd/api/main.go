// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"campwatch/internal/adapter/storage"
	"campwatch/internal/client/xai"
	"campwatch/internal/config"
	"campwatch/internal/server"
	"campwatch/internal/service/analysis"
	"campwatch/internal/service/scraper"
	"campwatch/internal/service/sentiment"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsConn.Close()

	// Initialize storage adapters
	accountStore := storage.NewAccountStore(db)
	tweetStore := storage.NewTweetStore(db)
	campStore := storage.NewCampStore(db)
	scoreStore := storage.NewScoreStore(db)
	sentimentStore := storage.NewSentimentStore(db)

	// Initialize LLM client
	llmClient, err := xai.New(xai.Config{
		APIKey:  cfg.XAI.APIKey,
		BaseURL: cfg.XAI.BaseURL,
		Model:   cfg.XAI.Model,
		Timeout: cfg.XAI.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// Initialize services
	sentimentAnalyzer := sentiment.NewAnalyzer(
		sentimentStore,
		campStore,
		scoreStore,
		llmClient,
		sentiment.Config{
			BatchSize:      cfg.Sentiment.BatchSize,
			CandidateLimit: cfg.Sentiment.CandidateLimit,
		},
	)

	analysisService := analysis.NewService(
		campStore,
		accountStore,
		tweetStore,
		scoreStore,
		sentimentAnalyzer,
		natsConn,
		analysis.Config{
			EventsTopic: cfg.Analysis.EventsTopic,
		},
	)

	var scraperService *scraper.Service
	if cfg.Scraper.BearerToken != "" {
		scraperService, err = scraper.NewService(
			storage.NewScrapeStore(db),
			scraper.Config{
				BearerToken:  cfg.Scraper.BearerToken,
				MaxTweets:    cfg.Scraper.MaxTweets,
				MaxFollowing: cfg.Scraper.MaxFollowing,
				MaxFollowers: cfg.Scraper.MaxFollowers,
			},
		)
		if err != nil {
			log.Fatalf("Failed to initialize scraper: %v", err)
		}
	} else {
		log.Println("X_BEARER_TOKEN not set, scraping endpoints disabled")
	}

	// Initialize HTTP server
	deps := server.Dependencies{
		Accounts:  accountStore,
		Tweets:    tweetStore,
		Camps:     campStore,
		Analysis:  analysisService,
		Sentiment: sentimentAnalyzer,
		NATS:      natsConn,
	}
	if scraperService != nil {
		deps.Scraper = scraperService
	}

	httpServer := server.NewServer(cfg.Server, cfg.Analysis.EventsTopic, deps)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	log.Println("Shutting down services...")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
