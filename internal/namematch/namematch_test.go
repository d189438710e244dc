package namematch

import (
	"testing"

	"comictag/internal/catalog"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Amazing Spider-Man", "amazing spider man"},
		{"Batman & Robin", "batman and robin"},
		{"Batman + Robin", "batman and robin"},
		{"Saga (2012)", "saga"},
		{"Saga v2 TPB", "saga"},
		{"X-Men Vol. 3 (Digital) (c2c)", "x men"},
		{"Astérix", "asterix"},
		{"Wolverine: Origins", "wolverine origins"},
		{"Ms. Marvel's Team-Up", "ms marvels team up"},
		{"The", "the"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScoreIdentityAndSymmetry(t *testing.T) {
	names := []string{"Saga", "The Walking Dead", "Astro City", "Hellboy", "Y: The Last Man", "Lumberjanes"}
	for _, a := range names {
		if got := Score(a, a); got != 100 {
			t.Errorf("Score(%q,%q) = %d, want 100", a, a, got)
		}
		for _, b := range names {
			if Score(a, b) != Score(b, a) {
				t.Errorf("Score not symmetric for %q/%q", a, b)
			}
			if s := Score(a, b); s < 0 || s > 100 {
				t.Errorf("Score(%q,%q) out of range: %d", a, b, s)
			}
		}
	}
}

func TestScoreIgnoresQualifiers(t *testing.T) {
	if got := Score("Saga (2012) (Digital)", "Saga"); got != 100 {
		t.Fatalf("expected qualifiers to be ignored, got %d", got)
	}
	if got := Score("Batman", "Superman"); got >= 90 {
		t.Fatalf("unexpectedly high score for different names: %d", got)
	}
	if got := Score("", ""); got != 0 {
		t.Fatalf("empty names should score 0, got %d", got)
	}
}

func TestScoreLiteral(t *testing.T) {
	if ScoreLiteral(" Saga ", "saga") != 100 {
		t.Fatal("expected case-insensitive literal match")
	}
	if ScoreLiteral("Saga", "Saga (2012)") != 0 {
		t.Fatal("literal compare should not normalize qualifiers")
	}
	if ScoreLiteral("", "") != 0 {
		t.Fatal("empty names never match literally")
	}
}

func TestStripLeadingNumber(t *testing.T) {
	if got := StripLeadingNumber("01 - Batman"); got != "Batman" {
		t.Fatalf("got %q", got)
	}
	if got := StripLeadingNumber("100 Bullets"); got != "Bullets" {
		t.Fatalf("got %q", got)
	}
	if got := StripLeadingNumber("1985"); got != "1985" {
		t.Fatalf("digit-only name should be unchanged, got %q", got)
	}
}

func TestSearchFiltersAndOrders(t *testing.T) {
	candidates := []catalog.CandidateIssue{
		{IssueID: "30", Series: "Saga", Year: 2012},
		{IssueID: "12", Series: "Saga", Year: 2018},
		{IssueID: "5", Series: "Saga", Year: 2018},
		{IssueID: "7", Series: "Sage", Year: 2020},
		{IssueID: "9", Series: "Superman", Year: 2020},
	}
	got := Search(candidates, "Saga", 70)
	wantIDs := []string{"5", "12", "30", "7"}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d results, got %+v", len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].Candidate.IssueID != id {
			t.Fatalf("position %d: got %s want %s (%+v)", i, got[i].Candidate.IssueID, id, got)
		}
	}
	if got[0].Score != 100 || got[3].Score != 75 {
		t.Fatalf("unexpected scores: %+v", got)
	}
}
