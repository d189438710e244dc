package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"comictag/internal/catalog/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the catalog cache",
	}
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			store, err := cache.Open(cfg.CatalogCachePath(), cfg.CacheTTL(), nil)
			if err != nil {
				return err
			}
			defer store.Close()
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache: %s (enabled: %s)\n", store.Path(), yesNo(cfg.Catalog.CacheEnabled))
			fmt.Fprintln(out, renderTable(
				[]string{"Entries", "Count"},
				[][]string{
					{"Searches", strconv.Itoa(stats.Searches)},
					{"Issues", strconv.Itoa(stats.Issues)},
					{"Images", strconv.Itoa(stats.Images) + " (" + humanize.IBytes(uint64(stats.ImageBytes)) + ")"},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var reset bool
	var expiredOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached catalog responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			path := cfg.CatalogCachePath()
			out := cmd.OutOrStdout()
			if reset {
				for _, file := range []string{path, path + "-wal", path + "-shm"} {
					if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
						return fmt.Errorf("remove %s: %w", file, err)
					}
				}
				fmt.Fprintf(out, "Deleted cache database %s\n", path)
				return nil
			}

			store, err := cache.Open(path, cfg.CacheTTL(), nil)
			if err != nil {
				return err
			}
			defer store.Close()
			if expiredOnly {
				removed, err := store.Prune(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d expired cache entries\n", removed)
				return nil
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Catalog cache cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete the cache database file instead of emptying it")
	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "Only remove entries older than catalog.cache_ttl_hours")
	return cmd
}
