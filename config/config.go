package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"copyTradeEngine/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Binance API (order placement / balance oracle)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Fan-out Parameters
	MaxConcurrentExecutions int           // Upper bound on concurrently executing copy tasks
	RateLimitMax            int           // Max admissions per follower inside the window
	RateLimitWindow         time.Duration // Sliding window length
	RateLimitPruneInterval  time.Duration // How often idle limiter histories are pruned
	ConfirmationTimeout     time.Duration // Reply window for confirmation prompts
	MetricsAlpha            float64       // EMA smoothing factor
	MetricsLogInterval      time.Duration // How often the performance snapshot is logged

	// Signing
	SignatureKey string // Secret key for the request signature HMAC

	// Database
	DBPath string

	// Redis (optional; in-process stores are used when unset)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka (optional; the consumer/publisher are disabled when unset)
	KafkaBrokers        []string
	KafkaGroupID        string
	KafkaTopicTrades    string
	KafkaTopicSummaries string

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Signing
	cfg.SignatureKey = getEnv("SIGNATURE_KEY", "")
	if cfg.SignatureKey == "" {
		errs = append(errs, "SIGNATURE_KEY must be set")
	}

	// Fan-out Parameters
	cfg.MaxConcurrentExecutions, err = getEnvAsIntRequired("MAX_CONCURRENT_EXECUTIONS", 32)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_CONCURRENT_EXECUTIONS: %v", err))
	} else if cfg.MaxConcurrentExecutions <= 0 {
		errs = append(errs, "MAX_CONCURRENT_EXECUTIONS must be positive")
	}

	cfg.RateLimitMax, err = getEnvAsIntRequired("RATE_LIMIT_MAX", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RATE_LIMIT_MAX: %v", err))
	} else if cfg.RateLimitMax <= 0 {
		errs = append(errs, "RATE_LIMIT_MAX must be positive")
	}

	rateWindowSeconds := getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if rateWindowSeconds <= 0 {
		errs = append(errs, "RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	cfg.RateLimitWindow = time.Duration(rateWindowSeconds) * time.Second

	pruneSeconds := getEnvAsInt("RATE_LIMIT_PRUNE_SECONDS", 300)
	if pruneSeconds <= 0 {
		errs = append(errs, "RATE_LIMIT_PRUNE_SECONDS must be positive")
	}
	cfg.RateLimitPruneInterval = time.Duration(pruneSeconds) * time.Second

	confirmSeconds := getEnvAsInt("CONFIRMATION_TIMEOUT_SECONDS", 30)
	if confirmSeconds <= 0 {
		errs = append(errs, "CONFIRMATION_TIMEOUT_SECONDS must be positive")
	}
	cfg.ConfirmationTimeout = time.Duration(confirmSeconds) * time.Second

	cfg.MetricsAlpha, err = getEnvAsFloatRequired("METRICS_ALPHA", 0.1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid METRICS_ALPHA: %v", err))
	} else if cfg.MetricsAlpha <= 0 || cfg.MetricsAlpha > 1 {
		errs = append(errs, "METRICS_ALPHA must be in (0.0, 1.0]")
	}

	metricsLogSeconds := getEnvAsInt("METRICS_LOG_SECONDS", 60)
	if metricsLogSeconds <= 0 {
		errs = append(errs, "METRICS_LOG_SECONDS must be positive")
	}
	cfg.MetricsLogInterval = time.Duration(metricsLogSeconds) * time.Second

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/copy_trading.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Redis (optional)
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)

	// Kafka (optional)
	cfg.KafkaBrokers = getEnvAsCSV("KAFKA_BROKERS", "")
	cfg.KafkaGroupID = getEnv("KAFKA_GROUP_ID", "copy-trade-engine")
	cfg.KafkaTopicTrades = getEnv("KAFKA_TOPIC_LEADER_TRADES", "leader_trades")
	cfg.KafkaTopicSummaries = getEnv("KAFKA_TOPIC_BATCH_SUMMARIES", "copy_batch_summaries")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsCSV(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
