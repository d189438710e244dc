package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"comictag/internal/catalog"
	"comictag/internal/catalog/cache"
	"comictag/internal/catalog/comicvine"
	"comictag/internal/catalog/htmlclean"
	"comictag/internal/config"
	"comictag/internal/cover"
	"comictag/internal/identification"
	"comictag/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the command logger and prunes old log files.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	logging.PruneLogs(logger, cfg.Paths.LogDir, "*.log*", logging.LogFileName, cfg.Logging.RetentionDays)
	return logger, nil
}

// catalogStack is the catalog client shared by the engine and the
// coordinator, optionally fronted by the SQLite cache.
type catalogStack struct {
	client catalog.Client
	images catalog.ImageFetcher
	store  *cache.Store
}

func (s *catalogStack) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	return s.store.Close()
}

func openCatalog(cfg *config.Config, logger *slog.Logger) (*catalogStack, error) {
	if err := cfg.RequireCatalogKey(); err != nil {
		return nil, err
	}
	cleaner := htmlclean.New(cfg.Catalog.RemoveHTMLTables)
	remote, err := comicvine.New(cfg.Catalog.APIKey, cfg.Catalog.BaseURL,
		comicvine.WithRateLimit(cfg.Catalog.RequestsPerSecond),
		comicvine.WithTimeout(cfg.CatalogTimeout()),
		comicvine.WithDescriptionCleaner(cleaner.Clean),
		comicvine.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	stack := &catalogStack{client: remote, images: remote}
	if !cfg.Catalog.CacheEnabled {
		return stack, nil
	}
	store, err := cache.Open(cfg.CatalogCachePath(), cfg.CacheTTL(), logger)
	if err != nil {
		logging.WarnWithContext(logger, "catalog cache unavailable", "catalog_cache_open_failed",
			logging.String("path", cfg.CatalogCachePath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `comictag cache clear --reset` to recreate it"),
			logging.String(logging.FieldImpact, "every request goes to the remote catalog"))
		return stack, nil
	}
	cached := store.Wrap(remote, remote)
	stack.client = cached
	stack.images = cached
	stack.store = store
	return stack, nil
}

func newEngine(cfg *config.Config, stack *catalogStack, logger *slog.Logger, literal bool) (*identification.Engine, error) {
	scorer, err := cover.NewScorer(cover.Options{
		Algorithm:         cfg.Identifier.HashAlgorithm,
		BorderCropPercent: cfg.Identifier.BorderCropPercent,
		BadScore:          cfg.Identifier.BadCoverScore,
	})
	if err != nil {
		return nil, err
	}
	opts := identification.OptionsFromConfig(cfg, logger)
	opts.Policy.Literal = literal
	return identification.NewEngine(stack.client, stack.images, scorer, opts), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
