package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	validSources    = []string{"comicvine"}
	validAlgorithms = []string{"ahash", "dhash", "phash"}
	validStyles     = []string{"cix", "cbi", "comet", "comictag"}
	validLogFormats = []string{"auto", "console", "json"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if !slices.Contains(validSources, c.Catalog.Source) {
		return fmt.Errorf("catalog.source must be one of %v, got %q", validSources, c.Catalog.Source)
	}
	if c.Catalog.CacheEnabled && c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set when catalog.cache_enabled is true")
	}
	if !slices.Contains(validAlgorithms, c.Identifier.HashAlgorithm) {
		return fmt.Errorf("identifier.hash_algorithm must be one of %v, got %q", validAlgorithms, c.Identifier.HashAlgorithm)
	}
	if !slices.Contains(validStyles, c.AutoTag.Style) {
		return fmt.Errorf("autotag.style must be one of %v, got %q", validStyles, c.AutoTag.Style)
	}
	if !slices.Contains(validLogFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", validLogFormats, c.Logging.Format)
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLogLevels, c.Logging.Level)
	}
	return nil
}

// RequireCatalogKey reports a configuration error when no catalog API key is
// available. Commands that only read local archives skip this check.
func (c *Config) RequireCatalogKey() error {
	if c.Catalog.APIKey != "" {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = defaultConfigRelativePath
	}
	return fmt.Errorf("catalog.api_key is required. Set %s or edit %s (create with 'comictag config init')", envCatalogAPIKey, path)
}
