package namematch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	parenYearPattern   = regexp.MustCompile(`[(\[]\s*\d{4}\s*[)\]]`)
	volumePattern      = regexp.MustCompile(`\b(?:vol(?:ume)?|v)\.?\s*\d+\b`)
	nonWordPattern     = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	leadingNumberRegex = regexp.MustCompile(`^\s*\d+[\s._-]+`)
)

// qualifiers are edition and format words dropped from normalized names.
var qualifiers = map[string]struct{}{
	"c2c":     {},
	"digital": {},
	"fcbd":    {},
	"tpb":     {},
	"hc":      {},
	"omnibus": {},
	"vol":     {},
	"volume":  {},
}

var articles = map[string]struct{}{
	"the": {},
}

// Normalize returns the canonical comparison form of a series name.
func Normalize(name string) string {
	folded := foldMarks(name)
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer("&", " and ", "+", " and ").Replace(folded)
	folded = parenYearPattern.ReplaceAllString(folded, " ")
	folded = volumePattern.ReplaceAllString(folded, " ")
	folded = strings.ReplaceAll(folded, "'", "")
	folded = nonWordPattern.ReplaceAllString(folded, " ")

	words := strings.Fields(folded)
	kept := words[:0]
	for i, word := range words {
		if _, ok := qualifiers[word]; ok {
			continue
		}
		if _, ok := articles[word]; ok && i == 0 && len(words) > 1 {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// StripLeadingNumber removes a reading-order prefix such as "01 - " from a
// series name. Names made only of digits are returned unchanged.
func StripLeadingNumber(name string) string {
	stripped := leadingNumberRegex.ReplaceAllString(name, "")
	if strings.TrimSpace(stripped) == "" {
		return name
	}
	return stripped
}

func foldMarks(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
