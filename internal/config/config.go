package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and AMQP_URL are
// required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Broker
	AMQPURL              string
	Exchange             string
	Queue                string
	Prefetch             int
	MaxReconnectAttempts int

	// Email provider
	SendGridAPIKey string
	FromName       string
	FromEmail      string

	// Maximum provider calls per second
	EmailRatePerSec int

	// Minimum gap between two emails for the same recipient/event type
	DebounceWindow time.Duration
}

func Load() (*Config, error) {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	amqpURL := os.Getenv("AMQP_URL")
	if amqpURL == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		AMQPURL:              amqpURL,
		Exchange:             getEnv("AMQP_EXCHANGE", "domain.events"),
		Queue:                getEnv("AMQP_QUEUE", "notifier.events"),
		Prefetch:             getInt("AMQP_PREFETCH", 32),
		MaxReconnectAttempts: getInt("AMQP_MAX_RECONNECT_ATTEMPTS", 10),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromName:       getEnv("EMAIL_FROM_NAME", "Splits Network"),
		FromEmail:      getEnv("EMAIL_FROM_ADDRESS", "notifications@splits.network"),

		EmailRatePerSec: getInt("EMAIL_RATE_PER_SEC", 20),

		DebounceWindow: getDuration("EMAIL_DEBOUNCE_WINDOW", 10*time.Minute),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
