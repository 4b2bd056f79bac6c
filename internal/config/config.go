package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey                string `toml:"api_key"`
	BaseURL               string `toml:"base_url"`
	ImageBaseURL          string `toml:"image_base_url"`
	Language              string `toml:"language"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	MinRequestIntervalMS  int    `toml:"min_request_interval_ms"`
	SearchCacheTTLSeconds int    `toml:"search_cache_ttl_seconds"`
}

// Seed controls first-run loading of the bundled reference lists.
type Seed struct {
	Enabled      bool `toml:"enabled"`
	FetchDetails bool `toml:"fetch_details"`
}

// Enrichment controls background backfill of partially cached movies.
type Enrichment struct {
	BatchSize int `toml:"batch_size"`
}

// TopList controls the auto-generated "Your Top N List".
type TopList struct {
	Enabled    bool `toml:"enabled"`
	DebounceMS int  `toml:"debounce_ms"`
}

// Sync contains the optional remote bulk sync settings.
type Sync struct {
	Enabled     bool   `toml:"enabled"`
	DatabaseURL string `toml:"database_url"`
	UserID      string `toml:"user_id"`
	BatchSize   int    `toml:"batch_size"`
}

// Notifications contains the optional ntfy push settings.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cinefile.
//
// Configuration sections by subsystem:
//   - Paths: data (SQLite store, lock files) and log directories
//   - TMDB: catalog credentials and request pacing
//   - Seed: first-run reference list loading
//   - Enrichment: background detail backfill batch size
//   - TopList: auto-generated top rated list debounce
//   - Sync: optional Postgres bulk sync
//   - Notifications: optional ntfy pushes for imports, seeding and sync
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Seed          Seed          `toml:"seed"`
	Enrichment    Enrichment    `toml:"enrichment"`
	TopList       TopList       `toml:"top_list"`
	Sync          Sync          `toml:"sync"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads CINEFILE_ENV_FILE (or ./.env) without overriding variables
// that are already set. A missing default file is ignored.
func loadDotEnv() error {
	target, explicit := os.LookupEnv("CINEFILE_ENV_FILE")
	target = strings.TrimSpace(target)
	if !explicit || target == "" {
		target = ".env"
		explicit = false
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("stat env file %q: %w", target, err)
	}
	if err := godotenv.Load(target); err != nil {
		return fmt.Errorf("load env file %q: %w", target, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cinefile.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite file backing the list store.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cinefile.db")
}

// LogPath returns the file the logger appends to.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "cinefile.log")
}

// SeedLockPath returns the lock file guarding first-run seeding.
func (c *Config) SeedLockPath() string {
	return filepath.Join(c.Paths.DataDir, "seed.lock")
}

// HasTMDBKey reports whether a catalog credential is configured.
func (c *Config) HasTMDBKey() bool {
	return strings.TrimSpace(c.TMDB.APIKey) != ""
}

// TMDBRequestTimeout returns the per-request catalog timeout.
func (c *Config) TMDBRequestTimeout() time.Duration {
	return time.Duration(c.TMDB.RequestTimeoutSeconds) * time.Second
}

// TMDBMinRequestInterval returns the minimum spacing between catalog searches.
func (c *Config) TMDBMinRequestInterval() time.Duration {
	return time.Duration(c.TMDB.MinRequestIntervalMS) * time.Millisecond
}

// TMDBSearchCacheTTL returns how long search responses stay cached.
func (c *Config) TMDBSearchCacheTTL() time.Duration {
	return time.Duration(c.TMDB.SearchCacheTTLSeconds) * time.Second
}

// NotificationTimeout returns the per-request ntfy timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// TopListDebounce returns the coalescing window for top list recomputation.
func (c *Config) TopListDebounce() time.Duration {
	return time.Duration(c.TopList.DebounceMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
