package namematch

import (
	"cmp"
	"slices"

	"comictag/internal/catalog"
)

// Scored pairs a candidate with its name score.
type Scored struct {
	Candidate catalog.CandidateIssue
	Score     int
}

// Search returns the candidates whose series name scores at least threshold
// against query, ordered by score descending, then year descending, then
// issue id ascending. At most catalog.MaxResults entries are returned.
func Search(candidates []catalog.CandidateIssue, query string, threshold int) []Scored {
	normalizedQuery := Normalize(query)
	var out []Scored
	for _, candidate := range candidates {
		score := ratio(normalizedQuery, Normalize(candidate.Series))
		if score < threshold {
			continue
		}
		out = append(out, Scored{Candidate: candidate, Score: score})
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Candidate.Year, a.Candidate.Year); c != 0 {
			return c
		}
		return catalog.CompareIssueIDs(a.Candidate.IssueID, b.Candidate.IssueID)
	})
	if len(out) > catalog.MaxResults {
		out = out[:catalog.MaxResults]
	}
	return out
}
