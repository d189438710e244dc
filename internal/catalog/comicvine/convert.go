package comicvine

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"comictag/internal/metadata"
)

var roleCaser = cases.Title(language.English)

func (c *Client) toMetadata(is issue, v volume) metadata.Metadata {
	md := metadata.Metadata{
		Series:      firstNonEmpty(v.Name, is.Volume.Name),
		Issue:       is.IssueNumber,
		IssueID:     strconv.Itoa(is.ID),
		SeriesID:    strconv.Itoa(is.Volume.ID),
		IssueCount:  v.CountOfIssues,
		Title:       strings.TrimSpace(is.Name),
		Description: c.describe(is.Description),
		WebLink:     is.SiteDetailURL,
		DataOrigin:  SourceName,
	}
	if is.Volume.ID == 0 {
		md.SeriesID = ""
	}
	if v.Publisher != nil {
		md.Publisher = v.Publisher.Name
	}
	md.Year, md.Month, md.Day = parseDate(firstNonEmpty(is.CoverDate, is.StoreDate))

	for _, credit := range is.PersonCredits {
		for _, role := range strings.Split(credit.Role, ",") {
			role = strings.TrimSpace(role)
			if role == "" {
				continue
			}
			md.Credits = append(md.Credits, metadata.Credit{Role: roleCaser.String(role), Person: credit.Name})
		}
	}
	md.Credits = metadata.MergeCredits(md.Credits)
	md.Characters = names(is.CharacterCredits)
	md.Teams = names(is.TeamCredits)
	md.Locations = names(is.LocationCredits)
	md.StoryArcs = names(is.StoryArcCredits)
	return md
}

func names(refs []ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return metadata.UnionSet(out)
}

// parseDate splits a "YYYY-MM-DD" date; missing parts are zero.
func parseDate(date string) (year, month, day int) {
	parts := strings.SplitN(strings.TrimSpace(date), "-", 3)
	values := make([]int, 3)
	for i, part := range parts {
		values[i], _ = strconv.Atoi(part)
	}
	return values[0], values[1], values[2]
}
