package namematch

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Score rates the similarity of two series names from 0 to 100.
func Score(a, b string) int {
	return ratio(Normalize(a), Normalize(b))
}

// ScoreLiteral is the binary comparison used for literal searches: 100 when
// the trimmed names are equal ignoring case, 0 otherwise.
func ScoreLiteral(a, b string) int {
	a = strings.TrimSpace(a)
	if a != "" && strings.EqualFold(a, strings.TrimSpace(b)) {
		return 100
	}
	return 0
}

func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)
	score := 100 * (1 - float64(distance)/float64(longest))
	return int(math.Round(max(score, 0)))
}
