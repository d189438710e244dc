package autotag

import (
	"reflect"
	"testing"

	"comictag/internal/identification"
)

func summaryOf(entries ...Entry) Summary {
	var s Summary
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

func TestSummaryAddOrdersByPath(t *testing.T) {
	s := summaryOf(
		Entry{Path: "c.cbz", Bucket: BucketGood},
		Entry{Path: "a.cbz", Bucket: BucketGood},
		Entry{Path: "b.cbz", Bucket: BucketNoMatch},
		Entry{Path: "b.cbz", Bucket: BucketGood},
	)
	if s.Total() != 4 || s.Count(BucketGood) != 3 || s.Count(BucketNoMatch) != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	for i, want := range []string{"a.cbz", "b.cbz", "c.cbz"} {
		if s.Good[i].Path != want {
			t.Fatalf("Good[%d] = %s, want %s", i, s.Good[i].Path, want)
		}
	}
}

func TestSummaryMergeIsAssociativeAndCommutative(t *testing.T) {
	a := summaryOf(
		Entry{Path: "1.cbz", Bucket: BucketGood, IssueID: "1", Saved: true},
		Entry{Path: "4.cbz", Bucket: BucketSkipped},
	)
	b := summaryOf(
		Entry{Path: "2.cbz", Bucket: BucketMultiple, Outcome: identification.MultipleGoodMatches},
		Entry{Path: "0.cbz", Bucket: BucketGood, IssueID: "7"},
	)
	c := summaryOf(
		Entry{Path: "3.cbz", Bucket: BucketWriteFailure},
		Entry{Path: "5.cbz", Bucket: BucketLowConfidence},
	)

	if !reflect.DeepEqual(a.Merge(b), b.Merge(a)) {
		t.Fatal("merge is not commutative")
	}
	if !reflect.DeepEqual(a.Merge(b).Merge(c), a.Merge(b.Merge(c))) {
		t.Fatal("merge is not associative")
	}
	merged := a.Merge(b).Merge(c)
	if merged.Total() != 6 || merged.Good[0].Path != "0.cbz" {
		t.Fatalf("unexpected merged summary %+v", merged)
	}
	if !reflect.DeepEqual(Summary{}.Merge(a), a) {
		t.Fatal("empty summary is not an identity")
	}
}

func TestBucketString(t *testing.T) {
	if BucketFetchFailure.String() != "fetch_failure" || Bucket(42).String() != "unknown" {
		t.Fatal("unexpected bucket names")
	}
	if len(Buckets()) != len(bucketNames) {
		t.Fatal("Buckets does not list every bucket")
	}
}
