// Package fetch stages remote datasets on the local filesystem.
//
// The client speaks the Kaggle public API: credentials come from the
// standard kaggle.json token or environment variables, and a dataset is
// downloaded as a zip archive which is extracted into its staging directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/JonMunkholm/fmed-ingest/internal/config"
	"github.com/JonMunkholm/fmed-ingest/internal/logging"
)

// ErrNotAuthenticated is returned by Fetch before a successful Authenticate.
var ErrNotAuthenticated = errors.New("client not authenticated")

const (
	tempPrefix   = ".download-"
	maxErrorBody = 512
)

// Client downloads datasets from the remote dataset service.
type Client struct {
	cfg        config.KaggleConfig
	baseURL    string
	httpClient *http.Client
	creds      Credentials
}

// NewClient creates a client with a pooled HTTP transport bounded by cfg.Timeout.
func NewClient(cfg config.KaggleConfig) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// Authenticate loads credentials and, when verification is enabled, checks
// them with one request to the service.
func (c *Client) Authenticate(ctx context.Context) error {
	creds, err := LoadCredentials(c.cfg)
	if err != nil {
		return err
	}

	if c.cfg.VerifyCredentials {
		if err := c.verify(ctx, creds); err != nil {
			return err
		}
	}

	c.creds = creds
	logging.FromContext(ctx).Info("dataset service authenticated", "user", creds.Username)
	return nil
}

func (c *Client) verify(ctx context.Context, creds Credentials) error {
	req, err := c.newRequest(ctx, creds, "/datasets/list?page=1")
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("verify credentials: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return statusError(resp)
}

// Fetch stages the dataset ref into dest and returns dest. When dest already
// holds files the download is skipped. The archive is downloaded and extracted
// in a sibling work directory that replaces dest only once extraction has
// succeeded, so a failed fetch never leaves a partially staged dataset.
func (c *Client) Fetch(ctx context.Context, ref, dest string) (string, error) {
	if c.creds.Empty() {
		return "", ErrNotAuthenticated
	}

	log := logging.WithFields(ctx, "ref", ref, "dest", dest)

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	staged, err := isStaged(dest)
	if err != nil {
		return "", err
	}
	if staged {
		log.Info("dataset already staged, skipping download")
		return dest, nil
	}

	work, err := os.MkdirTemp(filepath.Dir(dest), tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(work)

	archive, err := c.download(ctx, ref, work)
	if err != nil {
		return "", err
	}

	extracted := filepath.Join(work, "data")
	n, err := unzip(archive, extracted)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ref, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.Rename(extracted, dest); err != nil {
		return "", fmt.Errorf("move %s into place: %w", ref, err)
	}

	log.Info("dataset downloaded", "files", n)
	return dest, nil
}

// download writes the dataset archive to a temporary file inside dir.
func (c *Client) download(ctx context.Context, ref, dir string) (string, error) {
	owner, slug, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || slug == "" {
		return "", fmt.Errorf("invalid dataset ref %q", ref)
	}

	req, err := c.newRequest(ctx, c.creds, "/datasets/download/"+url.PathEscape(owner)+"/"+url.PathEscape(slug))
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("download %s: %w", ref, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*.zip")
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	return tmp.Name(), nil
}

func (c *Client) newRequest(ctx context.Context, creds Credentials, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Key)
	req.Header.Set("User-Agent", "fmed-ingest")
	return req, nil
}

// statusError maps a non-2xx response to an error. 401 and 403 wrap
// ErrInvalidCredentials.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, resp.Status)
	default:
		if msg == "" {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		return fmt.Errorf("unexpected status %s: %s", resp.Status, msg)
	}
}

// isStaged reports whether dir contains at least one regular file outside
// leftover work entries.
func isStaged(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("read staging directory: %w", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		if e.Type().IsRegular() {
			return true, nil
		}
		if e.IsDir() {
			if ok, _ := isStaged(filepath.Join(dir, e.Name())); ok {
				return true, nil
			}
		}
	}
	return false, nil
}
