package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/fmed-ingest/internal/config"
)

// CredentialsFile is the token file the dataset service hands out.
const CredentialsFile = "kaggle.json"

var (
	// ErrNoCredentials means neither env vars nor a token file were found.
	ErrNoCredentials = errors.New("dataset service credentials not found")

	// ErrInvalidCredentials means credentials exist but are malformed or rejected.
	ErrInvalidCredentials = errors.New("dataset service credentials invalid")
)

// Credentials authenticate against the dataset service.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// Empty reports whether either half is missing.
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Key == ""
}

// CredentialsPath returns where the token file is expected.
func CredentialsPath(cfg config.KaggleConfig) string {
	dir := cfg.ConfigDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".kaggle")
	}
	return filepath.Join(dir, CredentialsFile)
}

// LoadCredentials reads credentials from KAGGLE_USERNAME/KAGGLE_KEY when both
// are configured, otherwise from the token file.
func LoadCredentials(cfg config.KaggleConfig) (Credentials, error) {
	if cfg.Username != "" && cfg.Key != "" {
		return Credentials{Username: cfg.Username, Key: cfg.Key}, nil
	}

	path := CredentialsPath(cfg)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Credentials{}, fmt.Errorf("%w: %s does not exist", ErrNoCredentials, path)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidCredentials, path, err)
	}
	creds.Username = strings.TrimSpace(creds.Username)
	creds.Key = strings.TrimSpace(creds.Key)
	if creds.Empty() {
		return Credentials{}, fmt.Errorf("%w: %s must set username and key", ErrInvalidCredentials, path)
	}

	return creds, nil
}

// IsCredentialError reports whether err means the credentials are missing or
// were rejected, as opposed to the service being unreachable.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrInvalidCredentials)
}

// Instructions explains how to obtain credentials, for printing on abort.
func Instructions(cfg config.KaggleConfig) string {
	var b strings.Builder
	b.WriteString("Kaggle API credentials not found or rejected.\n")
	b.WriteString("Please follow these steps:\n")
	b.WriteString("  1. Go to https://www.kaggle.com/account\n")
	b.WriteString("  2. Click 'Create New API Token'\n")
	b.WriteString("  3. Download kaggle.json\n")
	fmt.Fprintf(&b, "  4. Place it in: %s\n", CredentialsPath(cfg))
	b.WriteString("     (or set KAGGLE_USERNAME and KAGGLE_KEY)\n")
	b.WriteString("  5. Run this command again\n")
	return b.String()
}
