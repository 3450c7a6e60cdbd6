package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is built once in main
// and handed to the pipeline; nothing below this package reads the
// environment at run time.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	NSE      NSEConfig
	Ingest   IngestConfig
	Kafka    KafkaConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NSEConfig holds bhavcopy source configuration
type NSEConfig struct {
	BaseURL      string
	UserAgent    string
	FetchTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// IngestConfig holds pipeline tuning knobs
type IngestConfig struct {
	Workers int
}

// KafkaConfig holds optional event publishing configuration.
// An empty broker list disables publishing entirely.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "getmarket"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		NSE: NSEConfig{
			BaseURL:      getEnv("NSE_BASE_URL", "https://www.nseindia.com"),
			UserAgent:    getEnv("NSE_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
			FetchTimeout: getEnvDuration("NSE_FETCH_TIMEOUT", 30*time.Second),
			MaxRetries:   getEnvInt("NSE_MAX_RETRIES", 3),
			RetryBackoff: getEnvDuration("NSE_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Ingest: IngestConfig{
			Workers: getEnvInt("INGEST_WORKERS", 4),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "market-data-events"),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
