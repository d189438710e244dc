package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	if err := c.normalizeIdentifier(); err != nil {
		return err
	}
	c.normalizeAutoTag()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	if c.Catalog.Source == "" {
		c.Catalog.Source = defaultCatalogSource
	}
	c.Catalog.APIKey = strings.TrimSpace(c.Catalog.APIKey)
	if c.Catalog.APIKey == "" {
		if value, ok := os.LookupEnv(envCatalogAPIKey); ok {
			c.Catalog.APIKey = strings.TrimSpace(value)
		}
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		c.Catalog.RequestsPerSecond = defaultRequestsPerSecond
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeout
	}
	if c.Catalog.CacheTTLHours <= 0 {
		c.Catalog.CacheTTLHours = defaultCacheTTLHours
	}
}

func (c *Config) normalizeIdentifier() error {
	id := &c.Identifier
	id.IdentifyThreshold = clamp(id.IdentifyThreshold, 0, maxThreshold)
	id.SearchThreshold = clamp(id.SearchThreshold, 0, maxThreshold)
	id.BadCoverScore = clamp(id.BadCoverScore, 0, maxHashDistance)
	id.BorderCropPercent = clamp(id.BorderCropPercent, 0, maxBorderCropPercent)
	id.HashAlgorithm = strings.ToLower(strings.TrimSpace(id.HashAlgorithm))
	if id.HashAlgorithm == "" {
		id.HashAlgorithm = defaultHashAlgorithm
	}
	if strings.TrimSpace(id.TagNoteMarker) == "" {
		id.TagNoteMarker = defaultTagNoteMarker
	}

	filter := make([]string, 0, len(id.PublisherFilter))
	seen := make(map[string]struct{}, len(id.PublisherFilter))
	for _, publisher := range id.PublisherFilter {
		publisher = strings.TrimSpace(publisher)
		key := strings.ToLower(publisher)
		if publisher == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filter = append(filter, publisher)
	}
	id.PublisherFilter = filter

	if strings.TrimSpace(id.ImprintsFile) != "" {
		expanded, err := expandPath(id.ImprintsFile)
		if err != nil {
			return fmt.Errorf("identifier.imprints_file: %w", err)
		}
		id.ImprintsFile = expanded
	}
	return nil
}

func (c *Config) normalizeAutoTag() {
	if c.AutoTag.Workers <= 0 {
		c.AutoTag.Workers = defaultWorkers
	}
	if c.AutoTag.Workers > maxWorkers {
		c.AutoTag.Workers = maxWorkers
	}
	if c.AutoTag.ArchiveTimeoutSeconds <= 0 {
		c.AutoTag.ArchiveTimeoutSeconds = defaultArchiveTimeout
	}
	c.AutoTag.Style = strings.ToLower(strings.TrimSpace(c.AutoTag.Style))
	if c.AutoTag.Style == "" {
		c.AutoTag.Style = defaultStyle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
