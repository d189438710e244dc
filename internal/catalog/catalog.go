package catalog

import (
	"cmp"
	"context"
	"strconv"
	"strings"

	"comictag/internal/metadata"
)

const (
	// PageSize is the number of candidates requested per Search call.
	PageSize = 100
	// MaxPages bounds how many pages Collect requests for one query.
	MaxPages = 5
	// MaxResults is the largest candidate count Collect returns.
	MaxResults = PageSize * MaxPages
)

// CandidateIssue is one catalog entry returned by a search.
type CandidateIssue struct {
	IssueID     string
	SeriesID    string
	Series      string
	IssueNumber string
	Year        int
	Publisher   string
	CoverURL    string
	// AltCoverURLs lists variant cover images when the catalog provides them.
	AltCoverURLs []string
}

// Query describes a candidate search.
type Query struct {
	Series      string
	IssueNumber string
	Year        int
	// Literal asks the catalog for exact series-name matches only.
	Literal  bool
	Page     int
	PageSize int
}

// SearchPage is one page of Search results.
type SearchPage struct {
	Candidates []CandidateIssue `json:"candidates"`
	// More reports that the catalog holds further pages for the query. A
	// page may hold few or no candidates and still have More set.
	More bool `json:"more"`
}

// Client is implemented by remote catalogs.
type Client interface {
	Name() string
	Search(ctx context.Context, q Query) (SearchPage, error)
	FetchIssue(ctx context.Context, issueID string) (metadata.Metadata, error)
}

// ImageFetcher downloads image bytes referenced by a candidate.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Collect runs q page by page until the catalog reports no further pages,
// MaxPages pages have been read, or MaxResults candidates are held.
func Collect(ctx context.Context, client Client, q Query) ([]CandidateIssue, error) {
	var all []CandidateIssue
	for page := 1; page <= MaxPages && len(all) < MaxResults; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q.Page = page
		q.PageSize = PageSize
		result, err := client.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Candidates...)
		if !result.More {
			break
		}
	}
	if len(all) > MaxResults {
		all = all[:MaxResults]
	}
	return all, nil
}

// CompareIssueIDs orders identifiers numerically when both parse as
// integers and lexically otherwise.
func CompareIssueIDs(a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(a, b)
}
