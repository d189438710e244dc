package comicvine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"comictag/internal/catalog"
	"comictag/internal/logging"
	"comictag/internal/metadata"
)

// SourceName is the catalog name recorded in tag notes.
const SourceName = "Comic Vine"

const (
	errorSource   = "comicvine"
	issuePrefix   = "4000-"
	volumePrefix  = "4050-"
	userAgent     = "comictag"
	maxImageBytes = 20 << 20
)

const (
	volumeFields = "id,name,start_year,count_of_issues,publisher"
	issueFields  = "id,name,issue_number,cover_date,volume,image,associated_images"
)

// Client talks to the Comic Vine API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	describe   func(string) string
	logger     *slog.Logger
}

var (
	_ catalog.Client       = (*Client)(nil)
	_ catalog.ImageFetcher = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit sets the sustained request rate. Zero or negative disables
// limiting.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithDescriptionCleaner converts issue descriptions, typically HTML, into
// stored text.
func WithDescriptionCleaner(clean func(string) string) Option {
	return func(c *Client) {
		c.describe = clean
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "comicvine")
	}
}

// New creates a Comic Vine client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("comicvine api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("comicvine base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		describe:   strings.TrimSpace,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name returns the catalog display name.
func (c *Client) Name() string { return SourceName }

// Search finds issues of volumes whose name matches q.Series. q.Page selects
// the page of volume results. Every issue of the kept volumes is returned,
// so the candidate count of a page says nothing about further volume pages;
// SearchPage.More is derived from the volume page instead.
func (c *Client) Search(ctx context.Context, q catalog.Query) (catalog.SearchPage, error) {
	series := strings.TrimSpace(q.Series)
	if series == "" {
		return catalog.SearchPage{}, catalog.NewError(errorSource, catalog.CodeBadResponse, "query must not be empty", nil)
	}
	page := max(q.Page, 1)
	limit := q.PageSize
	if limit <= 0 || limit > catalog.PageSize {
		limit = catalog.PageSize
	}

	params := url.Values{}
	params.Set("resources", "volume")
	params.Set("query", series)
	params.Set("field_list", volumeFields)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	var volumes []volume
	info, err := c.get(ctx, "/search/", params, &volumes)
	if err != nil {
		return catalog.SearchPage{}, err
	}
	more := len(volumes) >= limit
	if info.total > 0 {
		more = (page-1)*limit+len(volumes) < info.total
	}
	if len(volumes) == 0 {
		more = false
	}

	byID := make(map[int]volume, len(volumes))
	ids := make([]string, 0, len(volumes))
	for _, v := range volumes {
		if q.Literal && !strings.EqualFold(strings.TrimSpace(v.Name), series) {
			continue
		}
		if q.Year > 0 {
			if start, err := strconv.Atoi(v.StartYear); err == nil && start > q.Year {
				continue
			}
		}
		byID[v.ID] = v
		ids = append(ids, strconv.Itoa(v.ID))
	}
	c.logger.Debug("volume search",
		logging.String("series", series),
		logging.Int("page", page),
		logging.Int("volumes", len(volumes)),
		logging.Int("kept", len(ids)),
		logging.Bool("more", more))
	if len(ids) == 0 {
		return catalog.SearchPage{More: more}, nil
	}

	issues, err := c.issuesOf(ctx, ids, q.IssueNumber)
	if err != nil {
		return catalog.SearchPage{}, err
	}

	candidates := make([]catalog.CandidateIssue, 0, len(issues))
	for _, is := range issues {
		v := byID[is.Volume.ID]
		candidate := catalog.CandidateIssue{
			IssueID:     strconv.Itoa(is.ID),
			SeriesID:    strconv.Itoa(is.Volume.ID),
			Series:      firstNonEmpty(v.Name, is.Volume.Name),
			IssueNumber: is.IssueNumber,
			Year:        yearOf(is.CoverDate),
			CoverURL:    is.Image.best(),
		}
		if candidate.Year == 0 {
			candidate.Year, _ = strconv.Atoi(v.StartYear)
		}
		if v.Publisher != nil {
			candidate.Publisher = v.Publisher.Name
		}
		for _, alt := range is.AssociatedImages {
			if alt.OriginalURL != "" && alt.OriginalURL != candidate.CoverURL {
				candidate.AltCoverURLs = append(candidate.AltCoverURLs, alt.OriginalURL)
			}
		}
		candidates = append(candidates, candidate)
	}
	return catalog.SearchPage{Candidates: candidates, More: more}, nil
}

// issuesOf lists the issues of the given volumes, following offsets until the
// listing is exhausted or catalog.MaxResults issues have been read.
func (c *Client) issuesOf(ctx context.Context, volumeIDs []string, issueNumber string) ([]issue, error) {
	filter := "volume:" + strings.Join(volumeIDs, "|")
	if issueNumber = strings.TrimSpace(issueNumber); issueNumber != "" {
		filter += ",issue_number:" + issueNumber
	}
	var all []issue
	for {
		params := url.Values{}
		params.Set("filter", filter)
		params.Set("field_list", issueFields)
		params.Set("limit", strconv.Itoa(catalog.PageSize))
		params.Set("offset", strconv.Itoa(len(all)))
		var batch []issue
		info, err := c.get(ctx, "/issues/", params, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		switch {
		case len(batch) == 0:
			return all, nil
		case info.total > 0 && len(all) >= info.total:
			return all, nil
		case info.total == 0 && len(batch) < catalog.PageSize:
			return all, nil
		case len(all) >= catalog.MaxResults:
			logging.WarnWithContext(c.logger, "issue listing truncated", "comicvine_issues_truncated",
				logging.Int("read", len(all)),
				logging.Int("total", info.total),
				logging.String(logging.FieldErrorHint, "narrow the search with an issue number or year"),
				logging.String(logging.FieldImpact, "later issues of these volumes are not considered"))
			return all, nil
		}
	}
}

// FetchIssue returns full metadata for issueID, including the volume's
// publisher and issue count.
func (c *Client) FetchIssue(ctx context.Context, issueID string) (metadata.Metadata, error) {
	issueID = strings.TrimPrefix(strings.TrimSpace(issueID), issuePrefix)
	if _, err := strconv.Atoi(issueID); err != nil {
		return metadata.Metadata{}, catalog.NewError(errorSource, catalog.CodeNotFound, "invalid issue id "+issueID, err)
	}
	var is issue
	if _, err := c.get(ctx, "/issue/"+issuePrefix+issueID+"/", url.Values{}, &is); err != nil {
		return metadata.Metadata{}, err
	}
	var v volume
	if is.Volume.ID != 0 {
		params := url.Values{}
		params.Set("field_list", volumeFields)
		if _, err := c.get(ctx, "/volume/"+volumePrefix+strconv.Itoa(is.Volume.ID)+"/", params, &v); err != nil {
			return metadata.Metadata{}, err
		}
	}
	return c.toMetadata(is, v), nil
}

// FetchImage downloads a cover image.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, catalog.NewError(errorSource, catalog.CodeBadResponse, "build image request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, catalog.NewError(errorSource, catalog.CodeNetwork, "fetch image", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, catalog.NewError(errorSource, codeForHTTP(resp.StatusCode), fmt.Sprintf("image returned %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, catalog.NewError(errorSource, catalog.CodeNetwork, "read image", err)
	}
	return data, nil
}

// pageInfo carries the paging counters of a response envelope.
type pageInfo struct {
	total int
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (pageInfo, error) {
	if err := c.wait(ctx); err != nil {
		return pageInfo{}, err
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return pageInfo{}, catalog.NewError(errorSource, catalog.CodeBadResponse, "parse url", err)
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return pageInfo{}, catalog.NewError(errorSource, catalog.CodeBadResponse, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return pageInfo{}, catalog.NewError(errorSource, catalog.CodeNetwork, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	c.logger.Debug("comicvine request",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	if resp.StatusCode != http.StatusOK {
		return pageInfo{}, catalog.NewError(errorSource, codeForHTTP(resp.StatusCode), fmt.Sprintf("%s returned %d (latency=%v)", path, resp.StatusCode, latency), nil)
	}

	var payload envelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return pageInfo{}, catalog.NewError(errorSource, catalog.CodeBadResponse, "decode response", err)
	}
	if payload.StatusCode != statusOK {
		return pageInfo{}, catalog.NewError(errorSource, codeForStatus(payload.StatusCode), payload.Error, nil)
	}
	info := pageInfo{total: payload.TotalResults}
	if len(payload.Results) == 0 || string(payload.Results) == "null" {
		return info, nil
	}
	// An empty result object is encoded as [] by the API.
	if string(payload.Results) == "[]" {
		return info, nil
	}
	if err := json.Unmarshal(payload.Results, out); err != nil {
		return pageInfo{}, catalog.NewError(errorSource, catalog.CodeBadResponse, "decode results", err)
	}
	return info, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return catalog.NewError(errorSource, catalog.CodeTimeout, "rate limiter wait", ctxErr)
		}
		return catalog.NewError(errorSource, catalog.CodeTimeout, "rate limiter wait", err)
	}
	return nil
}

func codeForStatus(status int) catalog.Code {
	switch status {
	case statusInvalidAPIKey:
		return catalog.CodeAuth
	case statusNotFound:
		return catalog.CodeNotFound
	case statusRateLimited:
		return catalog.CodeRateLimited
	case statusURLFormat, statusFilterError:
		return catalog.CodeBadResponse
	default:
		return catalog.CodeBadResponse
	}
}

func codeForHTTP(status int) catalog.Code {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return catalog.CodeAuth
	case http.StatusNotFound:
		return catalog.CodeNotFound
	case http.StatusTooManyRequests, 420:
		return catalog.CodeRateLimited
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return catalog.CodeTimeout
	default:
		return catalog.CodeBadResponse
	}
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
