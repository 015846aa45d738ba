package config

import (
	"fmt"
	"os"
)

// Config holds all process configuration, read from the environment at startup
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	// Database
	DatabaseURL string

	// Identity
	JWTSecret []byte

	// Object storage
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	// Optional services
	RedisURL     string
	OTLPEndpoint string
}

// Load reads configuration from environment variables.
// DATABASE_URL takes precedence over the individual DB_* components.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8787"),
		Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:      getEnvOrDefault("LOG_FILE", "server.log"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		AWSRegion:    getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:    os.Getenv("AWS_BUCKET"),
		CDNBaseURL:   os.Getenv("CDN_BASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "picstream")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// IsProduction reports whether the process runs in production mode.
// Error responses omit internal details when true.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
