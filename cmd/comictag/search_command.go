package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"comictag/internal/catalog"
	"comictag/internal/namematch"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		year      int
		literal   bool
		threshold int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "search <series> [issue]",
		Short: "Search the catalog for a series",
		Long: `List catalog issues whose series name scores at least the search
threshold against the query, best first.

Examples:
  comictag search "Saga"
  comictag search "Saga" 12 --year 2013`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			stack, err := openCatalog(cfg, logger)
			if err != nil {
				return err
			}
			defer stack.Close()

			query := catalog.Query{Series: strings.TrimSpace(args[0]), Year: year, Literal: literal}
			if len(args) > 1 {
				query.IssueNumber = strings.TrimSpace(args[1])
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Identifier.SearchThreshold
			}

			candidates, err := catalog.Collect(cmd.Context(), stack.client, query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query.Series, err)
			}
			results := namematch.Search(candidates, query.Series, threshold)

			if asJSON {
				type resultView struct {
					Score     int    `json:"score"`
					IssueID   string `json:"issue_id"`
					Series    string `json:"series"`
					Issue     string `json:"issue"`
					Year      int    `json:"year,omitempty"`
					Publisher string `json:"publisher,omitempty"`
				}
				views := make([]resultView, 0, len(results))
				for _, r := range results {
					views = append(views, resultView{r.Score, r.Candidate.IssueID, r.Candidate.Series,
						r.Candidate.IssueNumber, r.Candidate.Year, r.Candidate.Publisher})
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No matches for %q (%d candidates below score %d).\n", query.Series, len(candidates), threshold)
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				yearText := ""
				if r.Candidate.Year > 0 {
					yearText = strconv.Itoa(r.Candidate.Year)
				}
				rows = append(rows, []string{
					strconv.Itoa(r.Score),
					r.Candidate.IssueID,
					r.Candidate.Series,
					r.Candidate.IssueNumber,
					yearText,
					r.Candidate.Publisher,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Score", "Issue ID", "Series", "Issue", "Year", "Publisher"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Drop series that started after this year")
	cmd.Flags().BoolVar(&literal, "literal", false, "Require exact series name matches")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum name score (default identifier.search_threshold)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}
