package filename

import (
	"testing"

	"comictag/internal/metadata"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts Options
		want metadata.Metadata
	}{
		{
			name: "scanner tags",
			in:   "/comics/Saga 001 (2012) (Digital) (Zone-Empire).cbz",
			want: metadata.Metadata{Series: "Saga", Issue: "1", Year: 2012},
		},
		{
			name: "hash issue and count",
			in:   "The Walking Dead #12 (of 48) (2005).cbz",
			want: metadata.Metadata{Series: "The Walking Dead", Issue: "12", IssueCount: 48, Year: 2005},
		},
		{
			name: "volume",
			in:   "X-Men v2 045 (1995).cbz",
			want: metadata.Metadata{Series: "X-Men", Issue: "45", Volume: "2", Year: 1995},
		},
		{
			name: "underscores",
			in:   "batman_annual_3_(1989).cbz",
			want: metadata.Metadata{Series: "Batman Annual", Issue: "3", Year: 1989},
		},
		{
			name: "no issue",
			in:   "Saga (2012).cbz",
			want: metadata.Metadata{Series: "Saga", Year: 2012},
		},
		{
			name: "number in series",
			in:   "100 Bullets 058 (2005).cbz",
			want: metadata.Metadata{Series: "100 Bullets", Issue: "58", Year: 2005},
		},
		{
			name: "decimal issue",
			in:   "Hellboy 1.5.cbz",
			want: metadata.Metadata{Series: "Hellboy", Issue: "1.5"},
		},
		{
			name: "title after issue",
			in:   "Saga 007 - The Will.cbz",
			want: metadata.Metadata{Series: "Saga", Issue: "7", Title: "The Will"},
		},
		{
			name: "noise words",
			in:   "Spawn c2c 001 fcbd.cbz",
			want: metadata.Metadata{Series: "Spawn", Issue: "1"},
		},
		{
			name: "leading number ignored",
			in:   "01 - Saga 002.cbz",
			opts: Options{IgnoreLeadingNumbers: true},
			want: metadata.Metadata{Series: "Saga", Issue: "2"},
		},
		{
			name: "issue zero",
			in:   "Batman 000.cbz",
			want: metadata.Metadata{Series: "Batman", Issue: "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in, tt.opts)
			if got.Series != tt.want.Series || got.Issue != tt.want.Issue || got.Year != tt.want.Year ||
				got.Volume != tt.want.Volume || got.IssueCount != tt.want.IssueCount || got.Title != tt.want.Title {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
