// Package filename extracts issue metadata from comic archive file names.
//
// Parsing is heuristic and only used when an archive carries no tag block:
// scanner tags, format notes and other parenthesized groups are dropped, and
// the last issue-like number separates the series from an optional title.
package filename

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"comictag/internal/metadata"
)

// Options tunes filename parsing.
type Options struct {
	// IgnoreLeadingNumbers drops a reading-order prefix such as "01 - ".
	IgnoreLeadingNumbers bool
}

var (
	yearPattern       = regexp.MustCompile(`[(\[]\s*((?:19|20)\d{2})\s*[)\]]`)
	countPattern      = regexp.MustCompile(`(?i)\(?\bof\s+(\d{1,4})\b\)?`)
	volumePattern     = regexp.MustCompile(`(?i)\bv(?:ol(?:ume)?)?\.?\s*(\d{1,4})\b`)
	groupPattern      = regexp.MustCompile(`[(\[{][^)\]}]*[)\]}]`)
	noisePattern      = regexp.MustCompile(`(?i)\b(?:c2c|fcbd|digital|tpb)\b`)
	leadingNumPattern = regexp.MustCompile(`^\s*\d+\s*[-._]?\s+`)
	issuePattern      = regexp.MustCompile(`(?i)^#?(\d+(?:\.\d+)?[a-z]?|½)$`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

var titleCaser = cases.Title(language.English)

// Parse derives series, issue, volume, year, issue count and title from
// the base name of path.
func Parse(path string, opts Options) metadata.Metadata {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.Contains(name, " ") {
		name = strings.ReplaceAll(name, "_", " ")
	}
	if opts.IgnoreLeadingNumbers {
		name = leadingNumPattern.ReplaceAllString(name, "")
	}

	var md metadata.Metadata
	if m := yearPattern.FindStringSubmatch(name); m != nil {
		md.Year, _ = strconv.Atoi(m[1])
	}
	if m := countPattern.FindStringSubmatch(name); m != nil {
		md.IssueCount, _ = strconv.Atoi(m[1])
		name = strings.Replace(name, m[0], " ", 1)
	}
	name = groupPattern.ReplaceAllString(name, " ")
	if m := volumePattern.FindStringSubmatch(name); m != nil {
		md.Volume = m[1]
		name = strings.Replace(name, m[0], " ", 1)
	}
	name = noisePattern.ReplaceAllString(name, " ")

	tokens := strings.Fields(spacePattern.ReplaceAllString(name, " "))
	issueAt := findIssue(tokens)
	seriesTokens := tokens
	if issueAt >= 0 {
		md.Issue = canonicalIssue(issueMatch(tokens[issueAt]))
		seriesTokens = tokens[:issueAt]
		md.Title = strings.TrimSpace(strings.TrimLeft(strings.Join(tokens[issueAt+1:], " "), "-– "))
	}
	md.Series = cleanSeries(strings.Join(seriesTokens, " "))
	return md
}

// findIssue returns the index of the issue token: an explicit "#N" token
// when present, otherwise the last number that is not the first token.
func findIssue(tokens []string) int {
	for i, token := range tokens {
		if strings.HasPrefix(token, "#") && issuePattern.MatchString(token) {
			return i
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		if !issuePattern.MatchString(tokens[i]) {
			continue
		}
		if i == 0 && len(tokens) > 1 {
			return -1
		}
		return i
	}
	return -1
}

func issueMatch(token string) string {
	return issuePattern.FindStringSubmatch(token)[1]
}

func canonicalIssue(issue string) string {
	trimmed := strings.TrimLeft(issue, "0")
	switch {
	case trimmed == "":
		return "0"
	case strings.HasPrefix(trimmed, "."):
		return "0" + trimmed
	case trimmed[0] < '0' || trimmed[0] > '9':
		if trimmed == issue {
			return issue
		}
		return "0" + trimmed
	default:
		return trimmed
	}
}

func cleanSeries(series string) string {
	series = strings.Trim(strings.TrimSpace(series), "-–,. ")
	if series != "" && series == strings.ToLower(series) {
		series = titleCaser.String(series)
	}
	return series
}
