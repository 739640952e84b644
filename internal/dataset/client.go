/**
 * @description
 * HTTP client for the remote dataset source.
 * Downloads the dataset bundle (a zip archive) and extracts its members
 * into a staging directory.
 *
 * @dependencies
 * - net/http
 * - archive/zip
 * - backend/internal/config
 *
 * @notes
 * - The archive is spooled to disk before extraction because zip needs
 *   random access to the central directory.
 */

package dataset

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shelfstats/backend/internal/config"
)

type Client struct {
	URL        string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		URL: cfg.Dataset.URL,
		HTTPClient: &http.Client{
			Timeout: cfg.Dataset.Timeout,
		},
	}
}

// FetchBundle downloads the dataset archive and extracts every regular
// file member into destDir.
func (c *Client) FetchBundle(ctx context.Context, destDir string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.URL, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset source error: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(destDir, "bundle-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return extractZip(tmp.Name(), destDir)
}

// extractZip unpacks every file member of the archive into destDir,
// flattening any internal directory structure.
func extractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open dataset archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractMember(f, filepath.Join(destDir, filepath.Base(f.Name))); err != nil {
			return err
		}
	}
	return nil
}

func extractMember(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
