/**
 * @description
 * Configuration loader for the ShelfStats backend.
 * Reads environment variables once at startup and resolves all
 * filesystem-dependent decisions (restricted environment detection,
 * data directory writability) into an explicit Config struct that is
 * passed by reference everywhere. Nothing else in the codebase reads
 * the environment.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars and probing the filesystem
 *
 * @notes
 * - Persistent storage is attempted only when USE_PERSISTENT_DB allows it
 *   AND the data directory is actually writable. Restricted container
 *   environments (read-only filesystems) degrade to in-memory silently.
 */

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Dataset   DatasetConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// StorageConfig holds the resolved storage layout and mode.
// RestrictedEnv and DirWritable are detected once here so the storage
// layer never has to consult the environment again.
type StorageConfig struct {
	DataDir string
	CSVPath string
	DBPath  string

	// PersistentOverride mirrors USE_PERSISTENT_DB.
	PersistentOverride bool
	// RestrictedEnv is true when container sentinels are present.
	RestrictedEnv bool
	// DirWritable is true when DataDir accepts writes.
	DirWritable bool
}

// UsePersistent reports the effective storage mode: persistent on-disk
// only when both the override allows it and the directory is writable.
func (s StorageConfig) UsePersistent() bool {
	return s.PersistentOverride && s.DirWritable
}

// DatasetConfig holds the remote dataset source settings
type DatasetConfig struct {
	URL     string
	Timeout time.Duration
}

// AnalyticsConfig holds query-layer defaults
type AnalyticsConfig struct {
	DefaultZThreshold float64
	DefaultLimit      int
	MinCategorySize   int
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Storage: StorageConfig{
			DataDir:            dataDir,
			CSVPath:            filepath.Join(dataDir, "amz_uk_processed_data.csv"),
			DBPath:             filepath.Join(dataDir, "amazon_products.db"),
			PersistentOverride: getEnvAsBool("USE_PERSISTENT_DB", true),
			RestrictedEnv:      detectRestrictedEnv(),
		},
		Dataset: DatasetConfig{
			URL:     getEnv("DATASET_URL", "https://www.kaggle.com/api/v1/datasets/download/asaniczka/amazon-uk-products-dataset-2023"),
			Timeout: time.Duration(getEnvAsInt("DATASET_TIMEOUT_SECONDS", 300)) * time.Second,
		},
		Analytics: AnalyticsConfig{
			DefaultZThreshold: getEnvAsFloat("DEFAULT_Z_THRESHOLD", 1.75),
			DefaultLimit:      getEnvAsInt("DEFAULT_LIMIT", 20),
			MinCategorySize:   getEnvAsInt("MIN_CATEGORY_SIZE", 10),
		},
	}

	// Create the data directory if possible, then record writability.
	// A failed mkdir is not fatal: it just forces in-memory mode.
	_ = os.MkdirAll(dataDir, 0o755)
	cfg.Storage.DirWritable = isDirWritable(dataDir)

	return cfg, nil
}

// detectRestrictedEnv checks for container sentinels that usually mean
// the filesystem is read-only or otherwise restricted.
func detectRestrictedEnv() bool {
	sentinels := []string{
		"/.dockerenv",
		"/run/.containerenv",
	}
	for _, s := range sentinels {
		if _, err := os.Stat(s); err == nil {
			return true
		}
	}
	return getEnv("CONTAINER", "") == "true" || getEnv("DOCKER_CONTAINER", "") == "true"
}

// isDirWritable probes a directory with a throwaway file
func isDirWritable(dir string) bool {
	probe := filepath.Join(dir, ".write_probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as float
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as bool
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
