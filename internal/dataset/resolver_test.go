package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shelfstats/backend/internal/apperr"
)

const bundleCSV = "asin,stars,categoryName\nB001,4.5,Gadgets\n"

func buildBundle(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip member %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip member %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func bundleServer(t *testing.T, bundle []byte, hits *int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/zip")
		w.Write(bundle)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestFixedResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.csv")

	_, err := FixedResolver{Path: path}.Resolve(context.Background())
	if !errors.Is(err, apperr.ErrDataSourceUnavailable) {
		t.Fatalf("missing file: expected ErrDataSourceUnavailable, got %v", err)
	}

	if err := os.WriteFile(path, []byte(bundleCSV), 0o644); err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	got, err := FixedResolver{Path: path}.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != path {
		t.Fatalf("expected %s, got %s", path, got)
	}
}

func TestCachingResolverDownloadsAndCaches(t *testing.T) {
	bundle := buildBundle(t, map[string]string{
		"dataset/products.csv": bundleCSV,
		"dataset/README.txt":   "about this dataset",
	})
	hits := 0
	srv := bundleServer(t, bundle, &hits)

	dir := t.TempDir()
	r := &CachingResolver{
		Client:      newTestClient(srv.URL),
		CSVPath:     filepath.Join(dir, "cache.csv"),
		DirWritable: true,
	}

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != r.CSVPath {
		t.Fatalf("expected cached copy at %s, got %s", r.CSVPath, got)
	}
	content, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("failed to read cached CSV: %v", err)
	}
	if string(content) != bundleCSV {
		t.Fatalf("cached CSV content mismatch: %q", content)
	}

	// Second resolution must hit the cache, not the network.
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("cached Resolve failed: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected 1 download, server saw %d", hits)
	}
}

func TestCachingResolverNoCSVInBundle(t *testing.T) {
	bundle := buildBundle(t, map[string]string{"README.txt": "no data here"})
	hits := 0
	srv := bundleServer(t, bundle, &hits)

	r := &CachingResolver{
		Client:      newTestClient(srv.URL),
		CSVPath:     filepath.Join(t.TempDir(), "cache.csv"),
		DirWritable: true,
	}

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, apperr.ErrDataSourceUnavailable) {
		t.Fatalf("expected ErrDataSourceUnavailable, got %v", err)
	}
}

func TestCachingResolverReadOnlyDir(t *testing.T) {
	bundle := buildBundle(t, map[string]string{"products.csv": bundleCSV})
	hits := 0
	srv := bundleServer(t, bundle, &hits)

	cachePath := filepath.Join(t.TempDir(), "cache.csv")
	r := &CachingResolver{
		Client:      newTestClient(srv.URL),
		CSVPath:     cachePath,
		DirWritable: false,
	}

	got, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got == cachePath {
		t.Fatal("read-only mode must not write the cache copy")
	}
	if _, err := os.Stat(cachePath); !os.IsNotExist(err) {
		t.Fatal("cache file should not exist in read-only mode")
	}
	content, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("failed to read staged CSV: %v", err)
	}
	if string(content) != bundleCSV {
		t.Fatalf("staged CSV content mismatch: %q", content)
	}
}

func TestCachingResolverSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r := &CachingResolver{
		Client:      newTestClient(srv.URL),
		CSVPath:     filepath.Join(t.TempDir(), "cache.csv"),
		DirWritable: true,
	}

	_, err := r.Resolve(context.Background())
	if !errors.Is(err, apperr.ErrDataSourceUnavailable) {
		t.Fatalf("expected ErrDataSourceUnavailable, got %v", err)
	}
}
