package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"catalogops/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Export   ExportConfig
	Wizard   WizardConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// BackendConfig holds catalog backend API settings
type BackendConfig struct {
	BaseURL        string
	Collections    []string
	PageSize       int
	RequestTimeout time.Duration
	BulkTimeout    time.Duration
	RetryMax       int
}

// DatabaseConfig holds the optional audit database settings
type DatabaseConfig struct {
	URL string
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	Dir string
}

// WizardConfig holds guided-fix wizard settings
type WizardConfig struct {
	MaxQueue int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8090"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Backend: BackendConfig{
			BaseURL:        os.Getenv("CATALOG_API_URL"),
			Collections:    getEnvList("CATALOG_COLLECTIONS", []string{"sinks", "taps", "lighting", "hot_water"}),
			PageSize:       getEnvInt("CATALOG_PAGE_SIZE", 50),
			RequestTimeout: getEnvDuration("CATALOG_REQUEST_TIMEOUT", 30*time.Second),
			BulkTimeout:    getEnvDuration("CATALOG_BULK_TIMEOUT", 2*time.Minute),
			RetryMax:       getEnvInt("CATALOG_RETRY_MAX", 3),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "exports"),
		},
		Wizard: WizardConfig{
			MaxQueue: getEnvInt("WIZARD_MAX_QUEUE", 200),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Backend.BaseURL == "" {
		return errors.ConfigInvalid("CATALOG_API_URL is required")
	}
	if len(config.Backend.Collections) == 0 {
		return errors.ConfigInvalid("CATALOG_COLLECTIONS must name at least one collection")
	}
	if config.Backend.PageSize <= 0 {
		return errors.ConfigInvalid("CATALOG_PAGE_SIZE must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	return nil
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as duration or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable as a slice
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
