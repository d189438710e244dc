package metadata

import "strings"

// PageTypeFrontCover is the page type label used for the flagged cover.
const PageTypeFrontCover = "FrontCover"

// Credit records one person's contribution to an issue.
type Credit struct {
	Role    string `json:"role"`
	Person  string `json:"person"`
	Primary bool   `json:"primary,omitempty"`
}

// Page describes one page image inside an archive.
type Page struct {
	Index      int    `json:"index"`
	Type       string `json:"type,omitempty"`
	FrontCover bool   `json:"front_cover,omitempty"`
	Bookmark   string `json:"bookmark,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// IsCover reports whether the page is flagged as the front cover.
func (p Page) IsCover() bool {
	return p.FrontCover || strings.EqualFold(p.Type, PageTypeFrontCover)
}

// Metadata is the canonical issue record. Issue is kept as text so values
// such as "1.1", "½" or "Annual" round-trip unchanged. Zero integers mean
// unset.
type Metadata struct {
	Series      string `json:"series,omitempty"`
	Issue       string `json:"issue,omitempty"`
	IssueID     string `json:"issue_id,omitempty"`
	SeriesID    string `json:"series_id,omitempty"`
	Volume      string `json:"volume,omitempty"`
	IssueCount  int    `json:"issue_count,omitempty"`
	Year        int    `json:"year,omitempty"`
	Month       int    `json:"month,omitempty"`
	Day         int    `json:"day,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	Imprint     string `json:"imprint,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	WebLink     string `json:"web_link,omitempty"`
	DataOrigin  string `json:"data_origin,omitempty"`

	Credits    []Credit `json:"credits,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	StoryArcs  []string `json:"story_arcs,omitempty"`
	Characters []string `json:"characters,omitempty"`
	Teams      []string `json:"teams,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Pages      []Page   `json:"pages,omitempty"`
}

// IsEmpty reports whether no field carries a value.
func (m Metadata) IsEmpty() bool {
	for _, s := range m.scalars() {
		if strings.TrimSpace(*s) != "" {
			return false
		}
	}
	if m.IssueCount != 0 || m.Year != 0 || m.Month != 0 || m.Day != 0 {
		return false
	}
	return len(m.Credits) == 0 && len(m.Tags) == 0 && len(m.StoryArcs) == 0 &&
		len(m.Characters) == 0 && len(m.Teams) == 0 && len(m.Locations) == 0 &&
		len(m.Pages) == 0
}

// CoverIndex returns the index of the flagged front cover page, or 0 when
// no page is flagged.
func (m Metadata) CoverIndex() int {
	for _, page := range m.Pages {
		if page.IsCover() {
			return page.Index
		}
	}
	return 0
}

// SetCover returns a copy whose page list flags exactly the page at index as
// the front cover.
func (m Metadata) SetCover(index int) Metadata {
	out := m.Clone()
	found := false
	for i := range out.Pages {
		isCover := out.Pages[i].Index == index
		out.Pages[i].FrontCover = isCover
		if isCover {
			found = true
			out.Pages[i].Type = PageTypeFrontCover
		} else if strings.EqualFold(out.Pages[i].Type, PageTypeFrontCover) {
			out.Pages[i].Type = ""
		}
	}
	if !found {
		out.Pages = append(out.Pages, Page{Index: index, Type: PageTypeFrontCover, FrontCover: true})
	}
	return out
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	out.Credits = cloneSlice(m.Credits)
	out.Tags = cloneSlice(m.Tags)
	out.StoryArcs = cloneSlice(m.StoryArcs)
	out.Characters = cloneSlice(m.Characters)
	out.Teams = cloneSlice(m.Teams)
	out.Locations = cloneSlice(m.Locations)
	out.Pages = cloneSlice(m.Pages)
	return out
}

// scalars lists pointers to every string scalar so overlay and emptiness
// checks stay in sync with the struct definition.
func (m *Metadata) scalars() []*string {
	return []*string{
		&m.Series, &m.Issue, &m.IssueID, &m.SeriesID, &m.Volume,
		&m.Publisher, &m.Imprint, &m.Title, &m.Description, &m.Notes,
		&m.WebLink, &m.DataOrigin,
	}
}

func (m *Metadata) ints() []*int {
	return []*int{&m.IssueCount, &m.Year, &m.Month, &m.Day}
}

func (m *Metadata) sets() []*[]string {
	return []*[]string{&m.Tags, &m.StoryArcs, &m.Characters, &m.Teams, &m.Locations}
}

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return append([]T(nil), in...)
}
