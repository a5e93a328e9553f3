// Package config は環境変数ベースのアプリケーション設定を提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Provider API keys
	NewsAPIKey     string
	GuardianAPIKey string

	// Fetch
	FetchTimeout    time.Duration
	FetchMaxRetries int
	FetchRetryDelay time.Duration

	// Scheduled jobs
	AggregateInterval time.Duration
	CleanupInterval   time.Duration
	ReportInterval    time.Duration
	RetentionDays     int

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	if cfg.NewsAPIKey == "" {
		missing = append(missing, "NEWSAPI_KEY")
	}

	cfg.GuardianAPIKey = os.Getenv("GUARDIAN_API_KEY")
	if cfg.GuardianAPIKey == "" {
		missing = append(missing, "GUARDIAN_API_KEY")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)
	cfg.FetchMaxRetries = getEnvInt("FETCH_MAX_RETRIES", 3)
	cfg.FetchRetryDelay = getEnvDuration("FETCH_RETRY_DELAY", 1*time.Second)
	cfg.AggregateInterval = getEnvDuration("AGGREGATE_INTERVAL", 1*time.Hour)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.ReportInterval = getEnvDuration("REPORT_INTERVAL", 24*time.Hour)
	cfg.RetentionDays = getEnvInt("RETENTION_DAYS", 30)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
