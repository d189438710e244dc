package identification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"comictag/internal/catalog"
	"comictag/internal/config"
	"comictag/internal/cover"
	"comictag/internal/logging"
	"comictag/internal/metadata"
	"comictag/internal/namematch"
)

// ErrCatalogUnavailable marks failures to query the catalog or download
// candidate covers. The underlying *catalog.Error stays reachable through
// errors.As.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// Policy holds the caller-selected search behavior.
type Policy struct {
	// Literal compares series names for exact equality instead of scoring.
	Literal bool
	// AssumeIssueOne queries issue "1" when the local issue is unknown.
	AssumeIssueOne bool
	// IgnoreLeadingDigits strips reading-order prefixes from series names.
	IgnoreLeadingDigits bool
	// UseYear passes the local year to the catalog as a start-year bound.
	// Same-year candidates rank first either way.
	UseYear bool
	// PublisherFilter lists publishers whose candidates are discarded.
	PublisherFilter []string
}

// Options configures an Engine.
type Options struct {
	IdentifyThreshold int
	Policy            Policy
	Logger            *slog.Logger
}

// OptionsFromConfig derives engine options from configuration.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		IdentifyThreshold: cfg.Identifier.IdentifyThreshold,
		Policy: Policy{
			AssumeIssueOne:      cfg.AutoTag.AssumeIssueOne,
			IgnoreLeadingDigits: cfg.AutoTag.IgnoreLeadingNumbers,
			UseYear:             cfg.Identifier.UseYear,
			PublisherFilter:     append([]string(nil), cfg.Identifier.PublisherFilter...),
		},
		Logger: logger,
	}
}

// Page is one local page image.
type Page struct {
	Index int
	Data  []byte
}

// Input is the local side of an identification.
type Input struct {
	Metadata metadata.Metadata
	// Cover is the page used as the local cover.
	Cover Page
	// AltPages are later pages compared when the cover does not match,
	// to detect archives whose cover is not the first page.
	AltPages []Page
	// SeriesOverride replaces Metadata.Series in the query when set.
	SeriesOverride string
}

// Result is the outcome of one identification.
type Result struct {
	Outcome Outcome
	// Matches holds every candidate that passed the name threshold, best
	// first.
	Matches []MatchResult
	Query   catalog.Query
	// Candidates is the number of catalog candidates examined.
	Candidates int
}

// Best returns the top-ranked match.
func (r Result) Best() (MatchResult, bool) {
	if len(r.Matches) == 0 {
		return MatchResult{}, false
	}
	return r.Matches[0], true
}

// Engine identifies issues. It is safe for concurrent use.
type Engine struct {
	client    catalog.Client
	images    catalog.ImageFetcher
	scorer    *cover.Scorer
	threshold int
	policy    Policy
	excluded  map[string]struct{}
	logger    *slog.Logger
}

// NewEngine wires an engine to its catalog collaborators.
func NewEngine(client catalog.Client, images catalog.ImageFetcher, scorer *cover.Scorer, opts Options) *Engine {
	excluded := make(map[string]struct{}, len(opts.Policy.PublisherFilter))
	for _, publisher := range opts.Policy.PublisherFilter {
		if key := strings.ToLower(strings.TrimSpace(publisher)); key != "" {
			excluded[key] = struct{}{}
		}
	}
	return &Engine{
		client:    client,
		images:    images,
		scorer:    scorer,
		threshold: opts.IdentifyThreshold,
		policy:    opts.Policy,
		excluded:  excluded,
		logger:    logging.NewComponentLogger(opts.Logger, "identifier"),
	}
}

// Identify searches the catalog for in and classifies the matches.
func (e *Engine) Identify(ctx context.Context, in Input) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)

	query, ok := e.BuildQuery(in)
	if !ok {
		logger.Info("identification skipped",
			logging.Args(logging.DecisionAttrs("identify", NoMatch.String(), "series name missing")...)...)
		return Result{Outcome: NoMatch, Query: query}, nil
	}

	candidates, err := catalog.Collect(ctx, e.client, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Query: query}, ctxErr
		}
		return Result{Query: query}, fmt.Errorf("%w: search %q: %w", ErrCatalogUnavailable, query.Series, err)
	}
	logger.Debug("catalog candidates",
		logging.String("series", query.Series),
		logging.String("issue", query.IssueNumber),
		logging.Int("candidates", len(candidates)))

	local := e.localCovers(logger, in)
	var matches []MatchResult
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{Query: query}, err
		}
		if e.isExcluded(candidate) {
			continue
		}
		if query.IssueNumber != "" && candidate.IssueNumber != "" && !SameIssue(query.IssueNumber, candidate.IssueNumber) {
			continue
		}
		nameScore := e.nameScore(query.Series, candidate.Series)
		if nameScore < e.threshold {
			continue
		}
		match, err := e.scoreCover(ctx, local, candidate)
		if err != nil {
			return Result{Query: query}, err
		}
		match.NameScore = nameScore
		if match.CoverMatched && !match.CoverAnomaly {
			match.Tier = TierGood
		}
		logger.Debug("candidate scored",
			logging.String(logging.FieldIssueID, candidate.IssueID),
			logging.String("candidate_series", candidate.Series),
			logging.Int("name_score", match.NameScore),
			logging.Int("cover_distance", match.CoverDistance),
			logging.Bool("cover_anomaly", match.CoverAnomaly),
			logging.String("tier", match.Tier.String()))
		matches = append(matches, match)
	}

	ranked := Rank(matches, in.Metadata.Year)
	outcome := Decide(ranked)
	logger.Info("identification decided",
		logging.Args(append(logging.DecisionAttrs("identify", outcome.String(), decisionReason(outcome)),
			logging.String(logging.FieldOutcome, outcome.String()),
			logging.Int("matches", len(ranked)),
			logging.Int("candidates", len(candidates)),
			logging.Strings("issue_ids", topIssueIDs(ranked, 5)))...)...)
	return Result{Outcome: outcome, Matches: ranked, Query: query, Candidates: len(candidates)}, nil
}

// BuildQuery derives the catalog query for in. It reports false when no
// series name is available.
func (e *Engine) BuildQuery(in Input) (catalog.Query, bool) {
	series := strings.TrimSpace(in.SeriesOverride)
	if series == "" {
		series = strings.TrimSpace(in.Metadata.Series)
	}
	if e.policy.IgnoreLeadingDigits {
		series = strings.TrimSpace(namematch.StripLeadingNumber(series))
	}
	issue := strings.TrimSpace(in.Metadata.Issue)
	if issue == "" {
		if e.policy.AssumeIssueOne {
			issue = "1"
		} else {
			issue = strings.TrimSpace(in.Metadata.Volume)
		}
	}
	query := catalog.Query{Series: series, IssueNumber: issue, Literal: e.policy.Literal}
	if e.policy.UseYear {
		query.Year = in.Metadata.Year
	}
	return query, series != ""
}

func (e *Engine) nameScore(query, candidate string) int {
	if e.policy.Literal {
		return namematch.ScoreLiteral(query, candidate)
	}
	return namematch.Score(query, candidate)
}

func (e *Engine) isExcluded(candidate catalog.CandidateIssue) bool {
	_, ok := e.excluded[strings.ToLower(strings.TrimSpace(candidate.Publisher))]
	return ok
}

type localCovers struct {
	cover     cover.Hash
	index     int
	canonical bool
	alts      []Page
	altHashes []cover.Hash
}

func (e *Engine) localCovers(logger *slog.Logger, in Input) *localCovers {
	local := &localCovers{
		index:     in.Cover.Index,
		canonical: cover.IsCanonical(in.Metadata, in.Cover.Index),
	}
	if len(in.Cover.Data) > 0 {
		hash, err := e.scorer.HashBytes(in.Cover.Data)
		if err != nil {
			logging.WarnWithContext(logger, "local cover unreadable", "cover_decode_failed",
				logging.Int("page", in.Cover.Index),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the archive's first image"),
				logging.String(logging.FieldImpact, "cover similarity unavailable; matches are low confidence"))
		} else {
			local.cover = hash
		}
	}
	for _, page := range in.AltPages {
		if len(page.Data) == 0 {
			continue
		}
		hash, err := e.scorer.HashBytes(page.Data)
		if err != nil {
			logger.Debug("alternate page unreadable", logging.Int("page", page.Index), logging.Error(err))
			continue
		}
		local.alts = append(local.alts, page)
		local.altHashes = append(local.altHashes, hash)
	}
	return local
}

// scoreCover measures the candidate's cover against the local cover, then
// its variant covers, then later local pages.
func (e *Engine) scoreCover(ctx context.Context, local *localCovers, candidate catalog.CandidateIssue) (MatchResult, error) {
	match := MatchResult{
		Candidate:     candidate,
		CoverDistance: cover.MaxDistance,
		CoverPage:     local.index,
		CoverAnomaly:  !local.canonical,
	}
	if local.cover.IsZero() && len(local.altHashes) == 0 {
		return match, nil
	}

	remote, err := e.remoteHash(ctx, candidate.CoverURL)
	if err != nil {
		return match, err
	}
	if !local.cover.IsZero() && !remote.IsZero() {
		if d, err := e.scorer.Distance(local.cover, remote); err == nil {
			match.CoverDistance = d
		}
	}

	if !e.scorer.IsGood(match.CoverDistance) && !local.cover.IsZero() {
		for _, url := range candidate.AltCoverURLs {
			if err := ctx.Err(); err != nil {
				return match, err
			}
			alt, err := e.remoteHash(ctx, url)
			if err != nil {
				return match, err
			}
			if alt.IsZero() {
				continue
			}
			if d, err := e.scorer.Distance(local.cover, alt); err == nil && d < match.CoverDistance {
				match.CoverDistance = d
			}
			if e.scorer.IsGood(match.CoverDistance) {
				break
			}
		}
	}

	if !e.scorer.IsGood(match.CoverDistance) && !remote.IsZero() {
		for i, hash := range local.altHashes {
			d, err := e.scorer.Distance(hash, remote)
			if err != nil || !e.scorer.IsGood(d) {
				continue
			}
			match.CoverDistance = d
			match.CoverPage = local.alts[i].Index
			match.CoverAnomaly = true
			break
		}
	}
	match.CoverMatched = e.scorer.IsGood(match.CoverDistance)
	return match, nil
}

// remoteHash downloads and hashes a candidate cover. Missing or
// undecodable covers yield a zero hash; transport failures are errors.
func (e *Engine) remoteHash(ctx context.Context, url string) (cover.Hash, error) {
	if strings.TrimSpace(url) == "" || e.images == nil {
		return cover.Hash{}, nil
	}
	data, err := e.images.FetchImage(ctx, url)
	if err != nil {
		if catalog.CodeOf(err) == catalog.CodeNotFound {
			return cover.Hash{}, nil
		}
		return cover.Hash{}, fmt.Errorf("%w: fetch cover: %w", ErrCatalogUnavailable, err)
	}
	hash, err := e.scorer.HashBytes(data)
	if err != nil {
		e.logger.Debug("candidate cover unreadable", logging.String("url", url), logging.Error(err))
		return cover.Hash{}, nil
	}
	return hash, nil
}

// SameIssue compares issue numbers ignoring case, surrounding space and
// leading zeros, so "001" matches "1" and "1.1" stays distinct from "1".
func SameIssue(a, b string) bool {
	return canonicalIssue(a) == canonicalIssue(b)
}

func canonicalIssue(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "#")
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	if strings.HasPrefix(trimmed, ".") {
		return "0" + trimmed
	}
	return trimmed
}

func decisionReason(o Outcome) string {
	switch o {
	case NoMatch:
		return "no candidate passed the name threshold"
	case SingleGoodMatch:
		return "one candidate with matching name and cover"
	case SingleMatchLowCoverConfidence:
		return "one candidate but cover similarity is low"
	case SingleMatchCoverNotFirstPage:
		return "one candidate matched a page other than the designated cover"
	case MultipleGoodMatches:
		return "several candidates match name and cover"
	default:
		return "several candidates with low confidence"
	}
}

func topIssueIDs(matches []MatchResult, n int) []string {
	ids := make([]string, 0, min(n, len(matches)))
	for _, m := range matches[:min(n, len(matches))] {
		ids = append(ids, m.Candidate.IssueID)
	}
	return ids
}
