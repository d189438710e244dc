package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"comictag/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".cache", "comictag")
	if cfg.Paths.CacheDir != wantCache {
		t.Fatalf("unexpected cache dir: got %q want %q", cfg.Paths.CacheDir, wantCache)
	}
	if cfg.Catalog.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.BaseURL != config.Default().Catalog.BaseURL {
		t.Fatalf("unexpected base url: %q", cfg.Catalog.BaseURL)
	}
	if cfg.Identifier.IdentifyThreshold != 90 || cfg.Identifier.SearchThreshold != 80 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Identifier)
	}
	if cfg.Identifier.BadCoverScore != 16 {
		t.Fatalf("unexpected bad cover score: %d", cfg.Identifier.BadCoverScore)
	}
	if cfg.AutoTag.Style != "comictag" {
		t.Fatalf("unexpected style: %q", cfg.AutoTag.Style)
	}
	if got := cfg.CatalogCachePath(); got != filepath.Join(wantCache, "catalog.db") {
		t.Fatalf("unexpected cache path: %q", got)
	}
}

func TestLoadCustomConfigClampsValues(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	custom := config.Default()
	custom.Catalog.APIKey = "  file-key  "
	custom.Catalog.BaseURL = "https://example.test/api/"
	custom.Identifier.IdentifyThreshold = 140
	custom.Identifier.SearchThreshold = -5
	custom.Identifier.BadCoverScore = 99
	custom.Identifier.BorderCropPercent = 80
	custom.Identifier.HashAlgorithm = "  DHASH "
	custom.Identifier.PublisherFilter = []string{"Panini Comics", " panini comics ", "", "Abril"}
	custom.AutoTag.Workers = 100
	custom.AutoTag.Style = "COMICTAG"
	custom.Paths.CacheDir = "~/cache"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Catalog.APIKey != "file-key" {
		t.Fatalf("expected trimmed api key, got %q", cfg.Catalog.APIKey)
	}
	if cfg.Catalog.BaseURL != "https://example.test/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Identifier.IdentifyThreshold != 100 || cfg.Identifier.SearchThreshold != 0 {
		t.Fatalf("thresholds not clamped: %+v", cfg.Identifier)
	}
	if cfg.Identifier.BadCoverScore != 64 {
		t.Fatalf("bad cover score not clamped: %d", cfg.Identifier.BadCoverScore)
	}
	if cfg.Identifier.BorderCropPercent != 45 {
		t.Fatalf("crop percent not clamped: %d", cfg.Identifier.BorderCropPercent)
	}
	if cfg.Identifier.HashAlgorithm != "dhash" {
		t.Fatalf("hash algorithm not normalized: %q", cfg.Identifier.HashAlgorithm)
	}
	if len(cfg.Identifier.PublisherFilter) != 2 {
		t.Fatalf("expected deduplicated publisher filter, got %v", cfg.Identifier.PublisherFilter)
	}
	if cfg.AutoTag.Workers != 16 {
		t.Fatalf("workers not clamped: %d", cfg.AutoTag.Workers)
	}
	if cfg.AutoTag.Style != "comictag" {
		t.Fatalf("style not normalized: %q", cfg.AutoTag.Style)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, "cache") {
		t.Fatalf("cache dir not expanded: %q", cfg.Paths.CacheDir)
	}
}

func TestLoadReadsDotenvBesideConfig(t *testing.T) {
	t.Setenv("COMICVINE_API_KEY", "")
	os.Unsetenv("COMICVINE_API_KEY")
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[catalog]\nsource = \"comicvine\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COMICVINE_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Catalog.APIKey != "from-dotenv" {
		t.Fatalf("expected key from .env, got %q", cfg.Catalog.APIKey)
	}
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"source", func(c *config.Config) { c.Catalog.Source = "metron" }, "catalog.source"},
		{"hash", func(c *config.Config) { c.Identifier.HashAlgorithm = "whash" }, "identifier.hash_algorithm"},
		{"style", func(c *config.Config) { c.AutoTag.Style = "acbf" }, "autotag.style"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %s error, got %v", tt.want, err)
			}
		})
	}
}

func TestRequireCatalogKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireCatalogKey(); err == nil {
		t.Fatal("expected error without api key")
	}
	cfg.Catalog.APIKey = "k"
	if err := cfg.RequireCatalogKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Identifier.HashAlgorithm != "ahash" {
		t.Fatalf("unexpected sample hash algorithm: %q", cfg.Identifier.HashAlgorithm)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.CacheDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
