// Package config provides centralized configuration management for the ingest run.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Datasets DatasetsConfig
	Kaggle   KaggleConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// DatasetsConfig holds staging and catalog settings.
type DatasetsConfig struct {
	// Dir is the staging root; each dataset gets a subdirectory (default: datasets)
	Dir string `env:"DATASETS_DIR" default:"datasets"`

	// CatalogFile is an optional YAML catalog replacing the built-in one
	CatalogFile string `env:"CATALOG_FILE"`
}

// KaggleConfig holds settings for the remote dataset service.
type KaggleConfig struct {
	// BaseURL is the API root (default: https://www.kaggle.com/api/v1)
	BaseURL string `env:"KAGGLE_API_URL" default:"https://www.kaggle.com/api/v1"`

	// ConfigDir holds kaggle.json (default: ~/.kaggle, resolved at runtime)
	ConfigDir string `env:"KAGGLE_CONFIG_DIR"`

	// Username and Key take precedence over kaggle.json when both are set
	Username string `env:"KAGGLE_USERNAME"`
	Key      string `env:"KAGGLE_KEY" secret:"true"`

	// Timeout bounds a single download (default: 10m)
	Timeout time.Duration `env:"KAGGLE_TIMEOUT" default:"10m"`

	// VerifyCredentials makes Authenticate call the service once (default: true)
	VerifyCredentials bool `env:"KAGGLE_VERIFY_CREDENTIALS" default:"true"`
}

// DatabaseConfig holds the fixed connection parameters shared by every
// hospital partition. Only the database name varies per partition.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" default:"localhost"`
	Port     int    `env:"DB_PORT" default:"5432"`
	User     string `env:"DB_USER" default:"postgres"`
	Password string `env:"DB_PASSWORD" secret:"true"`
	SSLMode  string `env:"DB_SSLMODE" default:"disable"`

	// NameTemplate is a fmt pattern receiving the partition number (default: fmed_h%d)
	NameTemplate string `env:"DB_NAME_TEMPLATE" default:"fmed_h%d"`

	// ConnectTimeout bounds opening a partition connection (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`

	// EnsureSchema creates the patients table when missing (default: true)
	EnsureSchema bool `env:"DB_ENSURE_SCHEMA" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
