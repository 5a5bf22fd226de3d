// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	XAI         XAIConfig
	Sentiment   SentimentConfig
	Analysis    AnalysisConfig
	Scraper     ScraperConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// XAIConfig holds LLM API configuration
type XAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SentimentConfig holds sentiment analysis configuration
type SentimentConfig struct {
	BatchSize      int
	CandidateLimit int
}

// AnalysisConfig holds analysis service configuration
type AnalysisConfig struct {
	EventsTopic string
}

// ScraperConfig holds scraper configuration
type ScraperConfig struct {
	BearerToken  string
	MaxTweets    int
	MaxFollowing int
	MaxFollowers int
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "campwatch"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		XAI: XAIConfig{
			APIKey:  getEnv("XAI_API_KEY", ""),
			BaseURL: getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),
			Model:   getEnv("XAI_MODEL", "grok-4-fast-non-reasoning"),
			Timeout: getEnvAsDuration("XAI_TIMEOUT", 60*time.Second),
		},
		Sentiment: SentimentConfig{
			BatchSize:      getEnvAsInt("SENTIMENT_BATCH_SIZE", 20),
			CandidateLimit: getEnvAsInt("SENTIMENT_CANDIDATE_LIMIT", 100),
		},
		Analysis: AnalysisConfig{
			EventsTopic: getEnv("ANALYSIS_EVENTS_TOPIC", "analysis"),
		},
		Scraper: ScraperConfig{
			BearerToken:  getEnv("X_BEARER_TOKEN", ""),
			MaxTweets:    getEnvAsInt("SCRAPER_MAX_TWEETS", 25),
			MaxFollowing: getEnvAsInt("SCRAPER_MAX_FOLLOWING", 25),
			MaxFollowers: getEnvAsInt("SCRAPER_MAX_FOLLOWERS", 25),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.XAI.APIKey == "" {
		return fmt.Errorf("XAI_API_KEY must be set")
	}
	if config.Sentiment.BatchSize <= 0 {
		return fmt.Errorf("sentiment batch size must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
