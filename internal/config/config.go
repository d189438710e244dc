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
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
	StateDir string `toml:"state_dir"`
}

// Catalog configures the remote issue catalog and its local cache.
type Catalog struct {
	Source            string  `toml:"source"`
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	CacheEnabled      bool    `toml:"cache_enabled"`
	CacheTTLHours     int     `toml:"cache_ttl_hours"`
	RemoveHTMLTables  bool    `toml:"remove_html_tables"`
}

// Identifier holds the thresholds and policy used by automatic identification.
type Identifier struct {
	// IdentifyThreshold is the minimum series-name score (0-100) for
	// automatic acceptance.
	IdentifyThreshold int `toml:"identify_threshold"`
	// SearchThreshold is the looser name score used when browsing results.
	SearchThreshold int `toml:"search_threshold"`
	// BadCoverScore is the largest cover hash distance still considered a
	// good cover match.
	BadCoverScore     int      `toml:"bad_cover_score"`
	BorderCropPercent int      `toml:"border_crop_percent"`
	HashAlgorithm     string   `toml:"hash_algorithm"`
	PublisherFilter   []string `toml:"publisher_filter"`
	UseYear           bool     `toml:"use_year"`
	AutoImprint       bool     `toml:"auto_imprint"`
	ImprintsFile      string   `toml:"imprints_file"`
	ClearOnImport     bool     `toml:"clear_metadata_on_import"`
	TagNoteMarker     string   `toml:"tag_note_marker"`
}

// Transform toggles the individual field-migration rules.
type Transform struct {
	ApplyOnImport           bool `toml:"apply_on_import"`
	AssumeLoneCreditPrimary bool `toml:"assume_lone_credit_primary"`
	CopyCharactersToTags    bool `toml:"copy_characters_to_tags"`
	CopyTeamsToTags         bool `toml:"copy_teams_to_tags"`
	CopyLocationsToTags     bool `toml:"copy_locations_to_tags"`
	CopyStoryArcsToTags     bool `toml:"copy_story_arcs_to_tags"`
	CopyNotesToComments     bool `toml:"copy_notes_to_comments"`
	CopyWebLinkToComments   bool `toml:"copy_web_link_to_comments"`
}

// AutoTag configures batch identification.
type AutoTag struct {
	Workers               int    `toml:"workers"`
	ArchiveTimeoutSeconds int    `toml:"archive_timeout_seconds"`
	SaveOnLowConfidence   bool   `toml:"save_on_low_confidence"`
	AssumeIssueOne        bool   `toml:"assume_issue_one"`
	IgnoreLeadingNumbers  bool   `toml:"ignore_leading_numbers"`
	Style                 string `toml:"style"`
	DryRun                bool   `toml:"dry_run"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for comictag.
//
// Configuration sections by subsystem:
//   - Paths: log, cache, and state directories
//   - Catalog: remote catalog connection and cache
//   - Identifier: name/cover thresholds and identification policy
//   - Transform: field-migration rules applied to fetched metadata
//   - AutoTag: batch concurrency, timeouts, and save policy
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Catalog    Catalog    `toml:"catalog"`
	Identifier Identifier `toml:"identifier"`
	Transform  Transform  `toml:"transform"`
	AutoTag    AutoTag    `toml:"autotag"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigRelativePath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and thresholds clamped.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

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

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotenv(filepath.Join(filepath.Dir(resolvedPath), dotenvFileName)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// loadDotenv imports variables from an optional .env file without
// overriding variables already present in the environment.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigFileName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the log, cache, and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CatalogCachePath returns the SQLite catalog cache location.
func (c *Config) CatalogCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "catalog.db")
}

// AutoTagLockPath returns the lock file guarding concurrent batch runs.
func (c *Config) AutoTagLockPath() string {
	return filepath.Join(c.Paths.StateDir, "autotag.lock")
}

// CatalogTimeout returns the per-request catalog deadline.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long catalog responses stay fresh in the cache.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTLHours) * time.Hour
}

// ArchiveTimeout returns the per-archive identification deadline.
func (c *Config) ArchiveTimeout() time.Duration {
	return time.Duration(c.AutoTag.ArchiveTimeoutSeconds) * time.Second
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
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
