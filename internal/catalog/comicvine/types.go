package comicvine

import "encoding/json"

// API status codes returned in the response envelope.
const (
	statusOK            = 1
	statusInvalidAPIKey = 100
	statusNotFound      = 101
	statusURLFormat     = 102
	statusFilterError   = 104
	statusRateLimited   = 107
)

type envelope struct {
	Error        string          `json:"error"`
	StatusCode   int             `json:"status_code"`
	Limit        int             `json:"limit"`
	Offset       int             `json:"offset"`
	PageResults  int             `json:"number_of_page_results"`
	TotalResults int             `json:"number_of_total_results"`
	Results      json.RawMessage `json:"results"`
}

type ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type image struct {
	OriginalURL string `json:"original_url"`
	SuperURL    string `json:"super_url"`
	MediumURL   string `json:"medium_url"`
}

func (i image) best() string {
	switch {
	case i.SuperURL != "":
		return i.SuperURL
	case i.OriginalURL != "":
		return i.OriginalURL
	default:
		return i.MediumURL
	}
}

type associatedImage struct {
	OriginalURL string `json:"original_url"`
}

type volume struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	StartYear     string `json:"start_year"`
	CountOfIssues int    `json:"count_of_issues"`
	Publisher     *ref   `json:"publisher"`
}

type personCredit struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type issue struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	IssueNumber      string            `json:"issue_number"`
	CoverDate        string            `json:"cover_date"`
	StoreDate        string            `json:"store_date"`
	Description      string            `json:"description"`
	SiteDetailURL    string            `json:"site_detail_url"`
	Volume           ref               `json:"volume"`
	Image            image             `json:"image"`
	AssociatedImages []associatedImage `json:"associated_images"`
	PersonCredits    []personCredit    `json:"person_credits"`
	CharacterCredits []ref             `json:"character_credits"`
	TeamCredits      []ref             `json:"team_credits"`
	LocationCredits  []ref             `json:"location_credits"`
	StoryArcCredits  []ref             `json:"story_arc_credits"`
}
