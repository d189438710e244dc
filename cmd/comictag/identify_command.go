package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"comictag/internal/autotag"
	"comictag/internal/config"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var (
		series  string
		literal bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "identify <archive>",
		Short: "Identify one archive and show the scored catalog matches",
		Long: `Identify an archive against the catalog without writing anything.
The archive's own metadata is used when present, otherwise the filename is
parsed. Every candidate that passes the name threshold is listed with its
name score, cover distance and confidence tier.

Examples:
  comictag identify "Saga 001 (2012).cbz"
  comictag identify --series "Saga" issue.cbz
  comictag identify --json issue.cbz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			stack, err := openCatalog(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()
			engine, err := newEngine(cfg, stack, logger, literal)
			if err != nil {
				return err
			}

			opts, err := autotag.OptionsFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			opts.DryRun = true
			opts.Workers = 1
			opts.SeriesOverride = series
			summary, err := autotag.NewCoordinator(engine, stack.client, opts).Run(cmd.Context(), []string{path})
			if err != nil {
				return err
			}
			entry := firstEntry(summary)
			if entry.Err != nil {
				return entry.Err
			}

			if asJSON {
				return writeJSON(cmd, struct {
					Archive string      `json:"archive"`
					Outcome string      `json:"outcome"`
					Matches []matchView `json:"matches"`
				}{path, entry.Outcome.String(), viewMatches(entry.Matches)})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Archive: %s\n", path)
			fmt.Fprintf(out, "Outcome: %s\n", entry.Outcome)
			if len(entry.Matches) == 0 {
				fmt.Fprintln(out, "No catalog candidates passed the name threshold.")
				return nil
			}
			fmt.Fprintln(out, renderMatches(entry.Matches))
			switch {
			case entry.Bucket == autotag.BucketGood:
				fmt.Fprintf(out, "Would tag with issue %s (run `comictag autotag` to save).\n", entry.IssueID)
			case entry.Outcome.Single():
				fmt.Fprintf(out, "Issue %s is a low confidence match; autotag saves it only with --save-on-low.\n", entry.IssueID)
			default:
				fmt.Fprintf(out, "%d candidates need review; rerun with --series to narrow the search.\n", len(entry.Matches))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&series, "series", "", "Search for this series name instead of the archive's")
	cmd.Flags().BoolVar(&literal, "literal", false, "Require exact series name matches")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func firstEntry(summary autotag.Summary) autotag.Entry {
	for _, b := range autotag.Buckets() {
		if entries := summary.Entries(b); len(entries) > 0 {
			return entries[0]
		}
	}
	return autotag.Entry{}
}
