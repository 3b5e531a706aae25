// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig
	Mongo     MongoConfig
	Auth      AuthConfig
	Assistant AssistantConfig
	Feed      FeedConfig
	LogLevel  string
	LogFormat string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// MongoConfig holds the document store connection.
type MongoConfig struct {
	URI      string
	Database string
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
}

// AssistantConfig holds the generative-language API settings.
type AssistantConfig struct {
	APIKey        string
	Model         string
	FallbackModel string
	BaseURL       string
	Timeout       time.Duration
	// Requests per caller per minute on the chat endpoint.
	RateLimit int
	// Upstream requests per minute across all callers.
	UpstreamPerMinute int
}

// FeedConfig holds the forum feed fan-out settings. An empty BrokerURL
// disables the MQTT mirror.
type FeedConfig struct {
	BrokerURL string
	Topic     string
	ClientID  string
	Heartbeat time.Duration
}

const devJWTSecret = "dev-secret-change-me"

// Load reads envFile if it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "engineeye"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", devJWTSecret),
			JWTExpiry: getDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Assistant: AssistantConfig{
			APIKey:        os.Getenv("GEMINI_API_KEY"),
			Model:         getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			FallbackModel: getEnv("GEMINI_FALLBACK_MODEL", "gemini-1.0-pro"),
			BaseURL:       strings.TrimRight(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"), "/"),
			Timeout:       getDuration("GEMINI_TIMEOUT", 30*time.Second),
			RateLimit:     getInt("CHAT_RATE_LIMIT", 10),

			UpstreamPerMinute: getInt("GEMINI_REQUESTS_PER_MINUTE", 60),
		},
		Feed: FeedConfig{
			BrokerURL: os.Getenv("MQTT_BROKER_URL"),
			Topic:     getEnv("MQTT_FEED_TOPIC", "engineeye/forum/snapshot"),
			ClientID:  getEnv("MQTT_CLIENT_ID", "engineeye-api"),
			Heartbeat: getDuration("FEED_HEARTBEAT", 30*time.Second),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.Auth.JWTSecret == devJWTSecret {
		log.Warn("JWT_SECRET not set, using development secret")
	}
	if cfg.Assistant.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set, chat requests will fail")
	}
	if cfg.Assistant.RateLimit <= 0 {
		return nil, fmt.Errorf("CHAT_RATE_LIMIT must be positive, got %d", cfg.Assistant.RateLimit)
	}
	return cfg, nil
}

// SetupLogging configures the global logrus logger.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("Invalid duration, using default")
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithFields(log.Fields{"key": key, "value": v}).Warn("Invalid integer, using default")
		return fallback
	}
	return n
}
