package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		value, ok := lookupEnv(envName, field.Tag.Get("envAlt"))
		if !ok {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// lookupEnv returns the first non-empty value of the primary or alternate variable.
func lookupEnv(name, alt string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, true
	}
	if alt != "" {
		if v := strings.TrimSpace(os.Getenv(alt)); v != "" {
			return v, true
		}
	}
	return "", false
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Datasets.Dir) == "" {
		errs = append(errs, "DATASETS_DIR must not be empty")
	}

	if !strings.HasPrefix(c.Kaggle.BaseURL, "http://") && !strings.HasPrefix(c.Kaggle.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("KAGGLE_API_URL (%q) must be an http(s) URL", c.Kaggle.BaseURL))
	}
	if c.Kaggle.Timeout <= 0 {
		errs = append(errs, "KAGGLE_TIMEOUT must be positive")
	}
	if (c.Kaggle.Username == "") != (c.Kaggle.Key == "") {
		errs = append(errs, "KAGGLE_USERNAME and KAGGLE_KEY must be set together")
	}

	if c.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT (%d) must be 1-65535", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}
	if strings.Count(c.Database.NameTemplate, "%d") != 1 {
		errs = append(errs, fmt.Sprintf("DB_NAME_TEMPLATE (%q) must contain exactly one %%d", c.Database.NameTemplate))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, "DB_CONNECT_TIMEOUT must be positive")
	}
	validSSL := map[string]bool{"disable": true, "allow": true, "prefer": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[c.Database.SSLMode] {
		errs = append(errs, fmt.Sprintf("DB_SSLMODE (%q) is not a valid libpq sslmode", c.Database.SSLMode))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Fields tagged secret are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	writeStruct(&b, reflect.ValueOf(*c))
	b.WriteString("}")
	return b.String()
}

func writeStruct(b *strings.Builder, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		field := t.Field(i)
		fv := v.Field(i)
		b.WriteString(field.Name)
		b.WriteString(": ")
		switch {
		case fv.Kind() == reflect.Struct:
			b.WriteString("{")
			writeStruct(b, fv)
			b.WriteString("}")
		case field.Tag.Get("secret") == "true":
			if fv.String() == "" {
				b.WriteString(`""`)
			} else {
				b.WriteString("[MASKED]")
			}
		case fv.Kind() == reflect.String:
			fmt.Fprintf(b, "%q", fv.String())
		default:
			fmt.Fprintf(b, "%v", fv.Interface())
		}
	}
}
