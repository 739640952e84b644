/**
 * @description
 * Data source resolution strategies.
 * A Resolver answers one question: where is the CSV the catalog should
 * be loaded from? Two strategies exist: a fixed local path (seeded
 * deployments, tests) and a cache-aware resolver that downloads the
 * dataset bundle on a cache miss.
 *
 * @dependencies
 * - backend/internal/apperr
 * - backend/internal/logger
 */

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/logger"
)

// Resolver locates the CSV file the catalog table is built from.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// FixedResolver always serves a pre-provisioned CSV at a known path.
type FixedResolver struct {
	Path string
}

func (r FixedResolver) Resolve(_ context.Context) (string, error) {
	if _, err := os.Stat(r.Path); err != nil {
		return "", fmt.Errorf("%w: no CSV at %s", apperr.ErrDataSourceUnavailable, r.Path)
	}
	return r.Path, nil
}

// CachingResolver serves the cached CSV copy when present and downloads
// the dataset bundle otherwise. When the data directory is writable the
// downloaded CSV is copied there so later resolutions hit the cache;
// otherwise it is served straight from the staging directory.
type CachingResolver struct {
	Client      *Client
	CSVPath     string
	DirWritable bool
}

func (r *CachingResolver) Resolve(ctx context.Context) (string, error) {
	if _, err := os.Stat(r.CSVPath); err == nil {
		logger.Info("Using cached dataset at %s", r.CSVPath)
		return r.CSVPath, nil
	}

	logger.Info("Dataset not found locally, downloading from %s", r.Client.URL)

	stage, err := os.MkdirTemp("", "shelfstats-dataset-")
	if err != nil {
		return "", err
	}

	if err := r.Client.FetchBundle(ctx, stage); err != nil {
		os.RemoveAll(stage)
		return "", fmt.Errorf("%w: %v", apperr.ErrDataSourceUnavailable, err)
	}

	src, err := firstCSV(stage)
	if err != nil {
		os.RemoveAll(stage)
		return "", err
	}

	if !r.DirWritable {
		// Read-only filesystem: leave the staging dir in place and load
		// directly from it.
		logger.Info("Data directory not writable, serving dataset from %s", src)
		return src, nil
	}

	if err := copyFile(src, r.CSVPath); err != nil {
		os.RemoveAll(stage)
		return "", err
	}
	os.RemoveAll(stage)

	logger.Info("Dataset downloaded successfully to %s", r.CSVPath)
	return r.CSVPath, nil
}

// firstCSV returns the lexicographically first CSV in dir. The bundle is
// expected to contain exactly one; the ordering only matters if it ever
// grows more.
func firstCSV(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no CSV files found in downloaded dataset", apperr.ErrDataSourceUnavailable)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
