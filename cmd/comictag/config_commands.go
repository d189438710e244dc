package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"comictag/internal/config"
	"comictag/internal/cover"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check the comictag configuration",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return cmd
}

// configTarget resolves the path config init writes to.
func configTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}
			_, statErr := os.Stat(target)
			switch {
			case statErr == nil && !overwrite:
				return fmt.Errorf("%s exists; pass --overwrite to replace it", target)
			case statErr != nil && !errors.Is(statErr, fs.ErrNotExist):
				return fmt.Errorf("inspect %s: %w", target, statErr)
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set catalog.api_key (or export COMICVINE_API_KEY) before running comictag.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (default ~/.config/comictag/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and print the effective settings",
		Long: `Load the configuration named by --config (or the default path), apply
defaults, and check the settings that are only read at run time: the imprint
table and the cover hash options.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var path string
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			if _, err := cover.NewScorer(cover.Options{
				Algorithm:         cfg.Identifier.HashAlgorithm,
				BorderCropPercent: cfg.Identifier.BorderCropPercent,
				BadScore:          cfg.Identifier.BadCoverScore,
			}); err != nil {
				return fmt.Errorf("identifier cover settings: %w", err)
			}
			imprints, err := loadImprints(cfg)
			if err != nil {
				return fmt.Errorf("identifier.imprints_file: %w", err)
			}

			source := resolved
			if !exists {
				source += " (not found, defaults used)"
			}
			rows := [][]string{
				{"Config", source},
				{"Catalog", cfg.Catalog.Source + " " + cfg.Catalog.BaseURL},
				{"API key set", yesNo(cfg.Catalog.APIKey != "")},
				{"Cache", cacheSetting(cfg)},
				{"Thresholds", fmt.Sprintf("identify %d, search %d, bad cover %d",
					cfg.Identifier.IdentifyThreshold, cfg.Identifier.SearchThreshold, cfg.Identifier.BadCoverScore)},
				{"Imprints", strconv.Itoa(imprints.Len()) + " mappings"},
				{"Autotag", fmt.Sprintf("%d workers, %s style, %s per archive",
					cfg.AutoTag.Workers, cfg.AutoTag.Style, cfg.ArchiveTimeout())},
				{"Logs", cfg.Paths.LogDir},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func cacheSetting(cfg *config.Config) string {
	if !cfg.Catalog.CacheEnabled {
		return "disabled"
	}
	return fmt.Sprintf("%s (ttl %s)", cfg.CatalogCachePath(), cfg.CacheTTL())
}
