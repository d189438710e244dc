package identification

import (
	"cmp"
	"slices"

	"comictag/internal/catalog"
)

// Outcome classifies an identification attempt.
type Outcome int

const (
	NoMatch Outcome = iota
	SingleGoodMatch
	SingleMatchLowCoverConfidence
	SingleMatchCoverNotFirstPage
	MultipleGoodMatches
	MultipleLowConfidenceMatches
)

var outcomeNames = [...]string{
	NoMatch:                       "no_match",
	SingleGoodMatch:               "single_good_match",
	SingleMatchLowCoverConfidence: "single_match_low_cover_confidence",
	SingleMatchCoverNotFirstPage:  "single_match_cover_not_first_page",
	MultipleGoodMatches:           "multiple_good_matches",
	MultipleLowConfidenceMatches:  "multiple_low_confidence_matches",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Single reports whether the outcome names exactly one candidate.
func (o Outcome) Single() bool {
	switch o {
	case SingleGoodMatch, SingleMatchLowCoverConfidence, SingleMatchCoverNotFirstPage:
		return true
	default:
		return false
	}
}

// Tier is the confidence of one match.
type Tier int

const (
	TierLow Tier = iota
	TierGood
)

func (t Tier) String() string {
	if t == TierGood {
		return "good"
	}
	return "low"
}

// MatchResult is one scored candidate.
type MatchResult struct {
	Candidate catalog.CandidateIssue
	// NameScore is the series-name similarity from 0 to 100.
	NameScore int
	// CoverDistance is the perceptual-hash distance of the best cover
	// comparison, 0 to 64.
	CoverDistance int
	// CoverMatched reports whether CoverDistance is within the bad-score
	// bound.
	CoverMatched bool
	// CoverAnomaly is set when the match relied on a page other than the
	// archive's designated cover.
	CoverAnomaly bool
	// CoverPage is the local page index the distance was measured against.
	CoverPage int
	Tier      Tier
}

// Decide maps scored matches to an Outcome.
//
//	remaining  good  low                                  outcome
//	0          -     -                                    NoMatch
//	1          1     0                                    SingleGoodMatch
//	1          0     1, cover anomaly, cover matched      SingleMatchCoverNotFirstPage
//	1          0     1                                    SingleMatchLowCoverConfidence
//	>=2        >=2   any                                  MultipleGoodMatches
//	>=2        <=1   >=1                                  MultipleLowConfidenceMatches
func Decide(matches []MatchResult) Outcome {
	switch len(matches) {
	case 0:
		return NoMatch
	case 1:
		m := matches[0]
		switch {
		case m.Tier == TierGood:
			return SingleGoodMatch
		case m.CoverAnomaly && m.CoverMatched:
			return SingleMatchCoverNotFirstPage
		default:
			return SingleMatchLowCoverConfidence
		}
	}
	if len(GoodMatches(matches)) >= 2 {
		return MultipleGoodMatches
	}
	return MultipleLowConfidenceMatches
}

// Rank orders matches best first: name score descending, then candidates
// whose year equals localYear, then year descending, then issue id
// ascending. The input is not modified.
func Rank(matches []MatchResult, localYear int) []MatchResult {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, func(a, b MatchResult) int {
		if c := cmp.Compare(b.NameScore, a.NameScore); c != 0 {
			return c
		}
		if localYear != 0 {
			aHit := a.Candidate.Year == localYear
			bHit := b.Candidate.Year == localYear
			if aHit != bHit {
				if aHit {
					return -1
				}
				return 1
			}
		}
		if c := cmp.Compare(b.Candidate.Year, a.Candidate.Year); c != 0 {
			return c
		}
		return catalog.CompareIssueIDs(a.Candidate.IssueID, b.Candidate.IssueID)
	})
	return out
}

// GoodMatches returns the matches in the good tier, preserving order.
func GoodMatches(matches []MatchResult) []MatchResult {
	var out []MatchResult
	for _, m := range matches {
		if m.Tier == TierGood {
			out = append(out, m)
		}
	}
	return out
}
