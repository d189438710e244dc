package main

import (
	"fmt"
	"strconv"

	"comictag/internal/identification"
)

// matchView is the JSON shape of one scored match.
type matchView struct {
	IssueID       string `json:"issue_id"`
	Series        string `json:"series"`
	Issue         string `json:"issue"`
	Year          int    `json:"year,omitempty"`
	Publisher     string `json:"publisher,omitempty"`
	NameScore     int    `json:"name_score"`
	CoverDistance int    `json:"cover_distance"`
	CoverAnomaly  bool   `json:"cover_anomaly,omitempty"`
	Tier          string `json:"tier"`
}

func viewMatches(matches []identification.MatchResult) []matchView {
	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{
			IssueID:       m.Candidate.IssueID,
			Series:        m.Candidate.Series,
			Issue:         m.Candidate.IssueNumber,
			Year:          m.Candidate.Year,
			Publisher:     m.Candidate.Publisher,
			NameScore:     m.NameScore,
			CoverDistance: m.CoverDistance,
			CoverAnomaly:  m.CoverAnomaly,
			Tier:          m.Tier.String(),
		})
	}
	return views
}

func renderMatches(matches []identification.MatchResult) string {
	headers := []string{"#", "Issue ID", "Series", "Issue", "Year", "Publisher", "Name", "Cover", "Tier"}
	rows := make([][]string, 0, len(matches))
	for i, m := range matches {
		year := ""
		if m.Candidate.Year > 0 {
			year = strconv.Itoa(m.Candidate.Year)
		}
		cover := strconv.Itoa(m.CoverDistance)
		if m.CoverAnomaly {
			cover += fmt.Sprintf(" (p%d)", m.CoverPage+1)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			m.Candidate.IssueID,
			m.Candidate.Series,
			m.Candidate.IssueNumber,
			year,
			m.Candidate.Publisher,
			strconv.Itoa(m.NameScore),
			cover,
			m.Tier.String(),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight, alignLeft})
}
