package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DATASETS_DIR", "CATALOG_FILE",
		"KAGGLE_API_URL", "KAGGLE_CONFIG_DIR", "KAGGLE_USERNAME", "KAGGLE_KEY",
		"KAGGLE_TIMEOUT", "KAGGLE_VERIFY_CREDENTIALS",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
		"DB_NAME_TEMPLATE", "DB_CONNECT_TIMEOUT", "DB_ENSURE_SCHEMA",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(name, "")
	}
}

func validConfig() *Config {
	return &Config{
		Datasets: DatasetsConfig{Dir: "datasets"},
		Kaggle:   KaggleConfig{BaseURL: "https://www.kaggle.com/api/v1", Timeout: time.Minute},
		Database: DatabaseConfig{
			Host: "localhost", Port: 5432, User: "postgres", SSLMode: "disable",
			NameTemplate: "fmed_h%d", ConnectTimeout: time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Datasets.Dir != "datasets" {
		t.Errorf("Datasets.Dir = %q, want %q", cfg.Datasets.Dir, "datasets")
	}
	if cfg.Kaggle.BaseURL != "https://www.kaggle.com/api/v1" {
		t.Errorf("Kaggle.BaseURL = %q", cfg.Kaggle.BaseURL)
	}
	if !cfg.Kaggle.VerifyCredentials {
		t.Error("Kaggle.VerifyCredentials should default to true")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.Database.NameTemplate != "fmed_h%d" {
		t.Errorf("Database.NameTemplate = %q, want %q", cfg.Database.NameTemplate, "fmed_h%d")
	}
	if cfg.Database.ConnectTimeout != 10*time.Second {
		t.Errorf("Database.ConnectTimeout = %v, want %v", cfg.Database.ConnectTimeout, 10*time.Second)
	}
	if !cfg.Database.EnsureSchema {
		t.Error("Database.EnsureSchema should default to true")
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATASETS_DIR", "/var/lib/fmed")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ENSURE_SCHEMA", "false")
	t.Setenv("KAGGLE_TIMEOUT", "1m30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Datasets.Dir != "/var/lib/fmed" {
		t.Errorf("Datasets.Dir = %q", cfg.Datasets.Dir)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 6543)
	}
	if cfg.Database.EnsureSchema {
		t.Error("Database.EnsureSchema = true, want false")
	}
	if cfg.Kaggle.Timeout != 90*time.Second {
		t.Errorf("Kaggle.Timeout = %v, want %v", cfg.Kaggle.Timeout, 90*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PORT", "five")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-numeric DB_PORT")
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("error should mention DB_PORT: %v", err)
	}
}

func TestLoad_PartialKaggleCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("KAGGLE_USERNAME", "someone")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when only KAGGLE_USERNAME is set")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Database.Port = 99999 }, "DB_PORT"},
		{"template without verb", func(c *Config) { c.Database.NameTemplate = "fmed" }, "DB_NAME_TEMPLATE"},
		{"template with two verbs", func(c *Config) { c.Database.NameTemplate = "h%d_%d" }, "DB_NAME_TEMPLATE"},
		{"bad sslmode", func(c *Config) { c.Database.SSLMode = "sometimes" }, "DB_SSLMODE"},
		{"bad api url", func(c *Config) { c.Kaggle.BaseURL = "ftp://kaggle" }, "KAGGLE_API_URL"},
		{"empty datasets dir", func(c *Config) { c.Datasets.Dir = " " }, "DATASETS_DIR"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %s: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, want := range []string{"DB_PORT", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = "n2pyy3x5sd"
	cfg.Kaggle.Username = "someone"
	cfg.Kaggle.Key = "deadbeef"

	str := cfg.String()
	if strings.Contains(str, "n2pyy3x5sd") || strings.Contains(str, "deadbeef") {
		t.Errorf("String() leaked a secret: %s", str)
	}
	if !strings.Contains(str, "[MASKED]") {
		t.Error("String() should contain MASKED placeholder")
	}
	if !strings.Contains(str, `"someone"`) {
		t.Error("String() should keep non-secret values")
	}
}
