package autotag

import (
	"cmp"
	"slices"
	"time"

	"comictag/internal/identification"
)

// Bucket is the batch category of one archive.
type Bucket int

const (
	BucketGood Bucket = iota
	BucketMultiple
	BucketLowConfidence
	BucketNoMatch
	BucketFetchFailure
	BucketWriteFailure
	BucketSkipped
)

var bucketNames = [...]string{
	BucketGood:          "good",
	BucketMultiple:      "multiple",
	BucketLowConfidence: "low_confidence",
	BucketNoMatch:       "no_match",
	BucketFetchFailure:  "fetch_failure",
	BucketWriteFailure:  "write_failure",
	BucketSkipped:       "skipped",
}

func (b Bucket) String() string {
	if b < 0 || int(b) >= len(bucketNames) {
		return "unknown"
	}
	return bucketNames[b]
}

// Buckets lists every bucket in report order.
func Buckets() []Bucket {
	return []Bucket{BucketGood, BucketMultiple, BucketLowConfidence, BucketNoMatch,
		BucketFetchFailure, BucketWriteFailure, BucketSkipped}
}

// Entry is the result for one archive.
type Entry struct {
	Path    string
	Bucket  Bucket
	// Identified reports whether Outcome was produced by the engine.
	Identified bool
	Outcome    identification.Outcome
	// IssueID is the saved issue, or the best match when nothing was saved.
	IssueID string
	// Matches are the ranked matches the engine returned, so a caller can
	// offer a manual choice.
	Matches  []identification.MatchResult
	Saved    bool
	Err      error
	Duration time.Duration
}

// Summary groups batch entries by bucket. The zero value is empty and ready
// to use. Entries inside a bucket are ordered by path, so Merge is
// associative and commutative.
type Summary struct {
	Good          []Entry
	Multiple      []Entry
	LowConfidence []Entry
	NoMatch       []Entry
	FetchFailures []Entry
	WriteFailures []Entry
	Skipped       []Entry
}

func (s *Summary) bucket(b Bucket) *[]Entry {
	switch b {
	case BucketGood:
		return &s.Good
	case BucketMultiple:
		return &s.Multiple
	case BucketLowConfidence:
		return &s.LowConfidence
	case BucketNoMatch:
		return &s.NoMatch
	case BucketFetchFailure:
		return &s.FetchFailures
	case BucketWriteFailure:
		return &s.WriteFailures
	default:
		return &s.Skipped
	}
}

// Add records e in its bucket.
func (s *Summary) Add(e Entry) {
	list := s.bucket(e.Bucket)
	pos, _ := slices.BinarySearchFunc(*list, e, compareEntries)
	*list = slices.Insert(*list, pos, e)
}

// Entries returns the entries of bucket b.
func (s Summary) Entries(b Bucket) []Entry {
	return *s.bucket(b)
}

// Count returns the number of entries in bucket b.
func (s Summary) Count(b Bucket) int {
	return len(s.Entries(b))
}

// Total returns the number of archives recorded.
func (s Summary) Total() int {
	total := 0
	for _, b := range Buckets() {
		total += s.Count(b)
	}
	return total
}

// Merge returns the union of s and other.
func (s Summary) Merge(other Summary) Summary {
	var out Summary
	for _, part := range []Summary{s, other} {
		for _, b := range Buckets() {
			for _, e := range part.Entries(b) {
				out.Add(e)
			}
		}
	}
	return out
}

func compareEntries(a, b Entry) int {
	return cmp.Or(
		cmp.Compare(a.Path, b.Path),
		cmp.Compare(a.IssueID, b.IssueID),
		cmp.Compare(a.Outcome, b.Outcome),
	)
}
