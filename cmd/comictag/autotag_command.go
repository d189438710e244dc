package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"comictag/internal/archive"
	"comictag/internal/autotag"
	"comictag/internal/config"
	"comictag/internal/metadata"
)

func newAutoTagCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun      bool
		workers     int
		series      string
		saveOnLow   bool
		literal     bool
		clearLocal  bool
		style       string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "autotag <path>...",
		Short: "Identify and tag archives in batch",
		Long: `Identify every archive under the given files and directories and write
catalog metadata to those with a confident single match. Archives with
several matches or a low-confidence match are listed for manual review.

Examples:
  comictag autotag ~/comics/Saga
  comictag autotag --dry-run --workers 4 ~/comics
  comictag autotag --series "Saga" --save-on-low *.cbz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			paths, err := collectArchives(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No comic archives found.")
				return nil
			}

			lock := flock.New(cfg.AutoTagLockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire autotag lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another autotag run is active (lock %s)", cfg.AutoTagLockPath())
			}
			defer func() { _ = lock.Unlock() }()

			stack, err := openCatalog(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()
			engine, err := newEngine(cfg, stack, logger, literal)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("style") {
				cfg.AutoTag.Style = style
			}
			opts, err := autotag.OptionsFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			if flags.Changed("dry-run") {
				opts.DryRun = dryRun
			}
			if flags.Changed("workers") {
				opts.Workers = workers
			}
			if flags.Changed("save-on-low") {
				opts.SaveOnLowConfidence = saveOnLow
			}
			if flags.Changed("clear") {
				opts.ClearOnImport = clearLocal
			}
			opts.SeriesOverride = series
			opts.Version = version
			if opts.AutoImprint {
				if opts.Imprints, err = loadImprints(cfg); err != nil {
					return err
				}
			}
			opts.Metrics = autotag.NewMetrics(nil)
			if isTerminal(cmd.ErrOrStderr()) {
				errOut := cmd.ErrOrStderr()
				opts.Progress = func(done, total int, e autotag.Entry) {
					fmt.Fprintf(errOut, "[%d/%d] %-14s %s\n", done, total, e.Bucket, filepath.Base(e.Path))
				}
			}

			summary, runErr := autotag.NewCoordinator(engine, stack.client, opts).Run(cmd.Context(), paths)
			writeSummary(cmd.OutOrStdout(), summary, opts.DryRun)

			if metricsFile != "" {
				target, err := config.ExpandPath(metricsFile)
				if err != nil {
					return err
				}
				if err := opts.Metrics.WriteTextfile(target); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Identify without writing metadata")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Archives processed concurrently (default from config)")
	cmd.Flags().StringVar(&series, "series", "", "Search every archive under this series name")
	cmd.Flags().BoolVar(&saveOnLow, "save-on-low", false, "Save single matches whose cover did not match")
	cmd.Flags().BoolVar(&literal, "literal", false, "Require exact series name matches")
	cmd.Flags().BoolVar(&clearLocal, "clear", false, "Replace existing metadata instead of merging")
	cmd.Flags().StringVar(&style, "style", "", "Metadata style to read and write")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write batch metrics in Prometheus textfile format")
	return cmd
}

// collectArchives expands directories recursively and returns the comic
// archives found, sorted and without duplicates.
func collectArchives(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		root, err := config.ExpandPath(strings.TrimSpace(arg))
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", arg, err)
		}
		if !info.IsDir() {
			if archive.IsComicFile(root) {
				paths = append(paths, root)
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if archive.IsComicFile(path) && !strings.HasPrefix(d.Name(), ".") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", arg, err)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func loadImprints(cfg *config.Config) (metadata.ImprintTable, error) {
	if cfg.Identifier.ImprintsFile == "" {
		return metadata.DefaultImprints()
	}
	table, err := metadata.LoadImprints(cfg.Identifier.ImprintsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return metadata.DefaultImprints()
	}
	return table, err
}

func writeSummary(out io.Writer, summary autotag.Summary, dryRun bool) {
	headers := []string{"Result", "Archives"}
	rows := make([][]string, 0, len(autotag.Buckets()))
	for _, b := range autotag.Buckets() {
		if n := summary.Count(b); n > 0 {
			rows = append(rows, []string{bucketLabel(b, dryRun), strconv.Itoa(n)})
		}
	}
	rows = append(rows, []string{"Total", strconv.Itoa(summary.Total())})
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignRight}))

	var review [][]string
	for _, b := range []autotag.Bucket{autotag.BucketMultiple, autotag.BucketLowConfidence, autotag.BucketNoMatch,
		autotag.BucketFetchFailure, autotag.BucketWriteFailure} {
		for _, e := range summary.Entries(b) {
			detail := strconv.Itoa(len(e.Matches)) + " matches"
			if e.Err != nil {
				detail = e.Err.Error()
			} else if b == autotag.BucketNoMatch {
				detail = ""
			}
			review = append(review, []string{bucketLabel(b, dryRun), filepath.Base(e.Path), detail})
		}
	}
	if len(review) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Result", "Archive", "Detail"}, review, nil))
	}
}

func bucketLabel(b autotag.Bucket, dryRun bool) string {
	switch b {
	case autotag.BucketGood:
		if dryRun {
			return "Would tag"
		}
		return "Tagged"
	case autotag.BucketMultiple:
		return "Multiple matches"
	case autotag.BucketLowConfidence:
		return "Low confidence"
	case autotag.BucketNoMatch:
		return "No match"
	case autotag.BucketFetchFailure:
		return "Fetch failed"
	case autotag.BucketWriteFailure:
		return "Write failed"
	default:
		return "Skipped"
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
