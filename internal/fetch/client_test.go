package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/fmed-ingest/internal/config"
)

type zipEntry struct {
	name, body string
}

// zipBytes builds an archive holding entries in the given order.
func zipBytes(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.name, err)
		}
		if _, err := f.Write([]byte(e.body)); err != nil {
			t.Fatalf("zip write %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// fakeService serves the list and download endpoints for user/key. The nth
// download returns archives[n-1], repeating the last one.
type fakeService struct {
	archives  [][]byte
	downloads atomic.Int32
	lastPath  atomic.Value
}

func (s *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, key, ok := r.BasicAuth()
	if !ok || user != "user" || key != "key" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch {
	case r.URL.Path == "/api/v1/datasets/list":
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	case strings.HasPrefix(r.URL.Path, "/api/v1/datasets/download/"):
		n := int(s.downloads.Add(1))
		s.lastPath.Store(r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/missing") || len(s.archives) == 0 {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(s.archives[min(n, len(s.archives))-1])
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, svc http.Handler, username, key string) *Client {
	t.Helper()
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	return NewClient(config.KaggleConfig{
		BaseURL:           srv.URL + "/api/v1/",
		ConfigDir:         t.TempDir(),
		Username:          username,
		Key:               key,
		Timeout:           5 * time.Second,
		VerifyCredentials: true,
	})
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		key      string
		wantErr  error
	}{
		{"valid", "user", "key", nil},
		{"rejected", "user", "wrong", ErrInvalidCredentials},
		{"absent", "", "", ErrNoCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeService{}, tt.username, tt.key)
			err := c.Authenticate(context.Background())
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Authenticate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetch_DownloadsAndExtracts(t *testing.T) {
	svc := &fakeService{archives: [][]byte{zipBytes(t,
		zipEntry{"heart.csv", "age,sex,cp\n54,1,2\n"},
		zipEntry{"docs/README.txt", "readme"},
	)}}
	c := newTestClient(t, svc, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "heart-disease-dataset")
	got, err := c.Fetch(context.Background(), "johnsmith88/heart-disease-dataset", dest)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != dest {
		t.Errorf("Fetch() = %q, want %q", got, dest)
	}

	data, err := os.ReadFile(filepath.Join(dest, "heart.csv"))
	if err != nil || !strings.HasPrefix(string(data), "age,sex,cp") {
		t.Errorf("heart.csv not extracted: %v %q", err, data)
	}
	if _, err := os.Stat(filepath.Join(dest, "docs", "README.txt")); err != nil {
		t.Errorf("nested file not extracted: %v", err)
	}

	entries, _ := os.ReadDir(dest)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			t.Errorf("temporary archive %s left behind", e.Name())
		}
	}

	siblings, _ := os.ReadDir(filepath.Dir(dest))
	if len(siblings) != 1 {
		t.Errorf("work directory left next to staging directory: %d entries", len(siblings))
	}

	if p, _ := svc.lastPath.Load().(string); p != "/api/v1/datasets/download/johnsmith88/heart-disease-dataset" {
		t.Errorf("download path = %q", p)
	}
}

func TestFetch_AlreadyStagedIsNoop(t *testing.T) {
	svc := &fakeService{archives: [][]byte{zipBytes(t, zipEntry{"a.csv", "x\n1\n"})}}
	c := newTestClient(t, svc, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(dest, "existing.csv"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Fetch(context.Background(), "owner/slug", dest); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if n := svc.downloads.Load(); n != 0 {
		t.Errorf("downloads = %d, want 0 for staged dataset", n)
	}
}

func TestFetch_ServiceError(t *testing.T) {
	c := newTestClient(t, &fakeService{}, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := c.Fetch(context.Background(), "owner/missing", filepath.Join(t.TempDir(), "d"))
	if err == nil {
		t.Fatal("Fetch() expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should mention status: %v", err)
	}
}

func TestFetch_CorruptArchive(t *testing.T) {
	svc := &fakeService{archives: [][]byte{[]byte("not a zip")}}
	c := newTestClient(t, svc, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "d")
	if _, err := c.Fetch(context.Background(), "owner/slug", dest); err == nil {
		t.Fatal("Fetch() expected error for corrupt archive")
	}

	entries, _ := os.ReadDir(dest)
	if len(entries) != 0 {
		t.Errorf("staging directory should be empty after failure, has %d entries", len(entries))
	}
}

func TestFetch_FailedExtractIsRetried(t *testing.T) {
	svc := &fakeService{archives: [][]byte{
		zipBytes(t, zipEntry{"good.csv", "id\n1\n"}, zipEntry{"../evil.csv", "x"}),
		zipBytes(t, zipEntry{"good.csv", "id\n1\n"}),
	}}
	c := newTestClient(t, svc, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(t.TempDir(), "d")
	if _, err := c.Fetch(context.Background(), "owner/slug", dest); err == nil {
		t.Fatal("first Fetch() expected extraction error")
	}

	entries, _ := os.ReadDir(dest)
	if len(entries) != 0 {
		t.Fatalf("failed extraction left %d entries in staging directory", len(entries))
	}

	if _, err := c.Fetch(context.Background(), "owner/slug", dest); err != nil {
		t.Fatalf("second Fetch() error = %v", err)
	}
	if n := svc.downloads.Load(); n != 2 {
		t.Errorf("downloads = %d, want 2 after failed extraction", n)
	}
	if _, err := os.Stat(filepath.Join(dest, "good.csv")); err != nil {
		t.Errorf("good.csv not staged on retry: %v", err)
	}
}

func TestFetch_IgnoresLeftoverWorkFiles(t *testing.T) {
	svc := &fakeService{archives: [][]byte{zipBytes(t, zipEntry{"a.csv", "x\n1\n"})}}
	c := newTestClient(t, svc, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, tempPrefix+"123"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, tempPrefix+"123", "partial.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Fetch(context.Background(), "owner/slug", dest); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if n := svc.downloads.Load(); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dest, "a.csv")); err != nil {
		t.Errorf("a.csv not staged: %v", err)
	}
}

func TestIsCredentialError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing", fmt.Errorf("auth: %w", ErrNoCredentials), true},
		{"rejected", fmt.Errorf("%w: 401 Unauthorized", ErrInvalidCredentials), true},
		{"network", errors.New("verify credentials: connection refused"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCredentialError(tt.err); got != tt.want {
				t.Errorf("IsCredentialError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFetch_RequiresAuthenticate(t *testing.T) {
	c := newTestClient(t, &fakeService{}, "user", "key")

	_, err := c.Fetch(context.Background(), "owner/slug", t.TempDir())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Fetch() error = %v, want ErrNotAuthenticated", err)
	}
}

func TestFetch_InvalidRef(t *testing.T) {
	c := newTestClient(t, &fakeService{}, "user", "key")
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Fetch(context.Background(), "no-slash", t.TempDir()); err == nil {
		t.Fatal("Fetch() expected error for ref without owner")
	}
}

func TestUnzip_RejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	if err := os.WriteFile(archive, zipBytes(t, zipEntry{"../escape.csv", "x"}), 0o644); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "dest")
	if _, err := unzip(archive, dest); err == nil {
		t.Fatal("unzip() expected error for entry escaping destination")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.csv")); err == nil {
		t.Error("escaping entry was written")
	}
}
