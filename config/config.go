package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"marginApp/internal/adapters/logger" // Import the logger package for LogLevel
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// It is built once at startup and passed explicitly to the components that need it.
type Config struct {
	// Storage
	StoreDriver string
	DBPath      string // SQLite file path
	DatabaseURL string // PostgreSQL DSN

	// HTTP front end
	HTTPAddr       string
	RequestTimeout time.Duration
	AdminIDs       []int64 // Identities allowed on the dashboard endpoints
	MaxMultiplier  int     // Front-end leverage policy; the lifecycle itself only requires >= 1

	// Logging
	LogLevel  logger.LogLevel
	LogFormat logger.Format
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Storage
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite))
	cfg.DBPath = getEnv("DB_PATH", "./data/margin_positions.db")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	switch cfg.StoreDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set for the sqlite store")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL must be set for the postgres store")
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("unknown STORE_DRIVER '%s' (expected sqlite, postgres or memory)", cfg.StoreDriver))
	}

	// HTTP
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	timeoutSeconds, err := getEnvAsIntRequired("REQUEST_TIMEOUT_SECONDS", 15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REQUEST_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT_SECONDS must be positive")
	}
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.MaxMultiplier, err = getEnvAsIntRequired("MAX_MULTIPLIER", 20)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_MULTIPLIER: %v", err))
	} else if cfg.MaxMultiplier < 1 {
		errs = append(errs, "MAX_MULTIPLIER must be at least 1")
	}

	cfg.AdminIDs, err = getEnvAsInt64List("ADMIN_IDS")
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ADMIN_IDS: %v", err))
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.ParseFormat(getEnv("LOG_FORMAT", "json"))

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

func getEnvAsInt64List(key string) ([]int64, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return nil, nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value '%s' for key %s: %w", p, key, err)
		}
		out = append(out, v)
	}
	return out, nil
}
