package autotag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"comictag/internal/archive"
	"comictag/internal/catalog"
	"comictag/internal/config"
	"comictag/internal/filename"
	"comictag/internal/identification"
	"comictag/internal/logging"
	"comictag/internal/metadata"
	"comictag/internal/services"
	"comictag/internal/transform"
)

// Identifier classifies one archive. *identification.Engine implements it.
//
// Identify should return promptly once ctx is done. The coordinator stops
// waiting at the archive deadline regardless, and a call still running then
// finishes in the background with its result discarded.
type Identifier interface {
	Identify(ctx context.Context, in identification.Input) (identification.Result, error)
}

// Options configures a Coordinator.
type Options struct {
	Workers        int
	ArchiveTimeout time.Duration
	Style          archive.Style
	// SaveOnLowConfidence saves a single match whose cover did not match.
	SaveOnLowConfidence bool
	// DryRun identifies without fetching or writing.
	DryRun bool
	// ClearOnImport replaces the archive's metadata instead of overlaying.
	ClearOnImport bool
	// Transform is applied to fetched metadata when it enables any rule.
	Transform transform.Options
	// AutoImprint maps imprint publishers to their parent using Imprints.
	AutoImprint bool
	Imprints    metadata.ImprintTable
	NoteMarker  string
	Version     string
	// SeriesOverride replaces the series name of every archive in the batch.
	SeriesOverride       string
	IgnoreLeadingNumbers bool
	// AltPages is the number of pages after the cover compared when the
	// cover itself does not match.
	AltPages int

	Logger  *slog.Logger
	Metrics *Metrics
	// Progress is called from the coordinator goroutine after each archive.
	Progress func(done, total int, e Entry)
	// Open opens archives; archive.Open when nil.
	Open func(path string) (archive.Archive, error)
	Now  func() time.Time
}

const defaultAltPages = 2

// OptionsFromConfig maps the [autotag], [identifier] and [transform]
// sections. Imprints is left empty; callers load it when AutoImprint is set.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) (Options, error) {
	style, err := archive.ParseStyle(cfg.AutoTag.Style)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "autotag", "parse style", cfg.AutoTag.Style, err)
	}
	opts := Options{
		Workers:              cfg.AutoTag.Workers,
		ArchiveTimeout:       cfg.ArchiveTimeout(),
		Style:                style,
		SaveOnLowConfidence:  cfg.AutoTag.SaveOnLowConfidence,
		DryRun:               cfg.AutoTag.DryRun,
		ClearOnImport:        cfg.Identifier.ClearOnImport,
		AutoImprint:          cfg.Identifier.AutoImprint,
		NoteMarker:           cfg.Identifier.TagNoteMarker,
		IgnoreLeadingNumbers: cfg.AutoTag.IgnoreLeadingNumbers,
		Logger:               logger,
	}
	if cfg.Transform.ApplyOnImport {
		opts.Transform = transform.OptionsFromConfig(cfg)
	}
	return opts, nil
}

// Coordinator runs batches. It holds no per-batch state and may run
// several batches in sequence.
type Coordinator struct {
	identifier Identifier
	client     catalog.Client
	opts       Options
	logger     *slog.Logger
}

// NewCoordinator wires a coordinator. client fetches full issue metadata
// for accepted matches.
func NewCoordinator(identifier Identifier, client catalog.Client, opts Options) *Coordinator {
	opts.Workers = max(opts.Workers, 1)
	if opts.Style == "" {
		opts.Style = archive.StyleComictag
	}
	if opts.AltPages <= 0 {
		opts.AltPages = defaultAltPages
	}
	if opts.Open == nil {
		opts.Open = archive.Open
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		identifier: identifier,
		client:     client,
		opts:       opts,
		logger:     logging.NewComponentLogger(opts.Logger, "autotag"),
	}
}

// Run processes paths and returns the batch summary. Every path appears in
// exactly one bucket. The error is non-nil only when ctx was cancelled; the
// summary is complete in that case too.
func (c *Coordinator) Run(ctx context.Context, paths []string) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, c.logger)
	start := c.opts.Now()
	logger.Info("autotag batch started",
		logging.Int("archives", len(paths)),
		logging.Int("workers", c.opts.Workers),
		logging.String("style", string(c.opts.Style)),
		logging.Bool("dry_run", c.opts.DryRun))

	entries := make(chan Entry, c.opts.Workers)
	done := make(chan Summary)
	go func() {
		var summary Summary
		completed := 0
		for e := range entries {
			summary.Add(e)
			completed++
			c.opts.Metrics.observe(e)
			if c.opts.Progress != nil {
				c.opts.Progress(completed, len(paths), e)
			}
		}
		done <- summary
	}()

	var group errgroup.Group
	group.SetLimit(c.opts.Workers)
	for _, path := range paths {
		if ctx.Err() != nil {
			entries <- Entry{Path: path, Bucket: BucketSkipped}
			continue
		}
		group.Go(func() error {
			entries <- c.processArchive(ctx, path)
			return nil
		})
	}
	_ = group.Wait()
	close(entries)
	summary := <-done

	c.opts.Metrics.runComplete(c.opts.Now())
	elapsed := c.opts.Now().Sub(start)
	attrs := []logging.Attr{logging.Duration("elapsed", elapsed)}
	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, logging.Float64("archives_per_second", float64(summary.Total())/secs))
	}
	for _, b := range Buckets() {
		attrs = append(attrs, logging.Int(b.String(), summary.Count(b)))
	}
	logger.Info("autotag batch finished", logging.Args(attrs...)...)
	return summary, ctx.Err()
}

// processArchive handles one archive start to finish.
func (c *Coordinator) processArchive(parent context.Context, path string) Entry {
	if parent.Err() != nil {
		return Entry{Path: path, Bucket: BucketSkipped}
	}
	c.opts.Metrics.started()
	defer c.opts.Metrics.finished()

	start := c.opts.Now()
	ctx := services.WithArchive(parent, path)
	if c.opts.ArchiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.ArchiveTimeout)
		defer cancel()
	}
	entry := c.tag(ctx, path)
	entry.Path = path
	entry.Duration = c.opts.Now().Sub(start)

	// Work abandoned because the batch was cancelled is not a failure of
	// this archive.
	if entry.Err != nil && !entry.Saved && parent.Err() != nil && errors.Is(entry.Err, context.Canceled) {
		entry.Bucket = BucketSkipped
	}
	logger := logging.WithContext(ctx, c.logger)
	attrs := []logging.Attr{
		logging.String("bucket", entry.Bucket.String()),
		logging.Bool("saved", entry.Saved),
		logging.Duration("elapsed", entry.Duration),
	}
	if entry.Identified {
		attrs = append(attrs, logging.String(logging.FieldOutcome, entry.Outcome.String()))
	}
	if entry.IssueID != "" {
		attrs = append(attrs, logging.String(logging.FieldIssueID, entry.IssueID))
	}
	switch entry.Bucket {
	case BucketWriteFailure:
		logging.ErrorWithContext(logger, "archive metadata not written", "autotag_write_failure",
			append(attrs,
				logging.Error(entry.Err),
				logging.String(logging.FieldErrorHint, hintFor(entry)))...)
	case BucketFetchFailure:
		logging.WarnWithContext(logger, "archive not tagged", "autotag_fetch_failure",
			append(attrs,
				logging.Error(entry.Err),
				logging.String(logging.FieldErrorHint, hintFor(entry)),
				logging.String(logging.FieldImpact, "archive left unchanged"))...)
	default:
		logger.Info("archive processed", logging.Args(attrs...)...)
	}
	return entry
}

func (c *Coordinator) tag(ctx context.Context, path string) Entry {
	ar, err := c.opts.Open(path)
	if err != nil {
		return Entry{Bucket: BucketFetchFailure, Err: services.Wrap(services.ErrArchive, "read", "open archive", "", err)}
	}
	if !c.opts.DryRun && !ar.IsWritable() {
		return Entry{Bucket: BucketWriteFailure, Err: services.Wrap(services.ErrArchive, "write", "check permissions", "", archive.ErrNotWritable)}
	}

	local := c.readLocal(services.WithStep(ctx, "read"), ar)
	input := c.buildInput(ar, local)

	result, err := c.identify(services.WithStep(ctx, "identify"), input)
	if err != nil {
		return Entry{Bucket: BucketFetchFailure, Err: err}
	}
	entry := Entry{Identified: true, Outcome: result.Outcome, Matches: result.Matches}
	if best, ok := result.Best(); ok {
		entry.IssueID = best.Candidate.IssueID
	}

	switch {
	case result.Outcome == identification.NoMatch:
		entry.Bucket = BucketNoMatch
		return entry
	case result.Outcome == identification.MultipleGoodMatches:
		entry.Bucket = BucketMultiple
		return entry
	case result.Outcome == identification.MultipleLowConfidenceMatches:
		entry.Bucket = BucketLowConfidence
		return entry
	case result.Outcome == identification.SingleMatchLowCoverConfidence && !c.opts.SaveOnLowConfidence:
		entry.Bucket = BucketLowConfidence
		return entry
	}

	if c.opts.DryRun {
		entry.Bucket = BucketGood
		return entry
	}

	fetchCtx := services.WithStep(ctx, "fetch")
	remote, err := c.client.FetchIssue(fetchCtx, entry.IssueID)
	if err != nil {
		entry.Bucket = BucketFetchFailure
		entry.Err = services.Wrap(services.ErrCatalog, "fetch", "fetch issue", entry.IssueID, err)
		return entry
	}

	merged := c.merge(local, remote)
	if err := ar.WriteMetadata(merged, c.opts.Style); err != nil {
		entry.Bucket = BucketWriteFailure
		entry.Err = services.Wrap(services.ErrArchive, "write", "write metadata", string(c.opts.Style), err)
		return entry
	}
	entry.Bucket = BucketGood
	entry.Saved = true
	return entry
}

// identify runs the identifier and gives up when ctx ends first.
func (c *Coordinator) identify(ctx context.Context, in identification.Input) (identification.Result, error) {
	type reply struct {
		result identification.Result
		err    error
	}
	done := make(chan reply, 1)
	go func() {
		result, err := c.identifier.Identify(ctx, in)
		done <- reply{result, err}
	}()
	select {
	case r := <-done:
		return r.result, r.err
	case <-ctx.Done():
		select {
		case r := <-done:
			return r.result, r.err
		default:
			return identification.Result{}, ctx.Err()
		}
	}
}

// readLocal returns the archive's metadata, or metadata parsed from the
// filename when the archive carries none.
func (c *Coordinator) readLocal(ctx context.Context, ar archive.Archive) metadata.Metadata {
	logger := logging.WithContext(ctx, c.logger)
	var md metadata.Metadata
	if ar.HasMetadata(c.opts.Style) {
		read, err := ar.ReadMetadata(c.opts.Style)
		if err != nil {
			logging.WarnWithContext(logger, "archive metadata unreadable", "metadata_parse_failed",
				logging.String("style", string(c.opts.Style)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the tag block will be rewritten on save"),
				logging.String(logging.FieldImpact, "identification uses the filename"))
		} else {
			md = read
		}
	}
	if md.IsEmpty() {
		parsed := filename.Parse(ar.Path(), filename.Options{IgnoreLeadingNumbers: c.opts.IgnoreLeadingNumbers})
		md = parsed.Replace(metadata.WithPages(md.Pages))
		logger.Debug("metadata from filename",
			logging.String("series", md.Series),
			logging.String("issue", md.Issue),
			logging.Int("year", md.Year))
	}
	return md
}

func (c *Coordinator) buildInput(ar archive.Archive, md metadata.Metadata) identification.Input {
	in := identification.Input{Metadata: md, SeriesOverride: c.opts.SeriesOverride}
	index := md.CoverIndex()
	if index >= ar.NumberOfPages() {
		index = 0
	}
	in.Cover.Index = index
	if data, err := ar.Page(index); err == nil {
		in.Cover.Data = data
	}
	for i := index + 1; i < ar.NumberOfPages() && len(in.AltPages) < c.opts.AltPages; i++ {
		data, err := ar.Page(i)
		if err != nil {
			continue
		}
		in.AltPages = append(in.AltPages, identification.Page{Index: i, Data: data})
	}
	return in
}

// merge combines local and fetched metadata into the record to write.
func (c *Coordinator) merge(local, remote metadata.Metadata) metadata.Metadata {
	if c.opts.Transform.Enabled() {
		remote = transform.Apply(remote, c.opts.Transform)
	}
	var merged metadata.Metadata
	priorNotes := local.Notes
	if c.opts.ClearOnImport {
		merged = remote.Replace(metadata.WithPages(local.Pages))
		priorNotes = remote.Notes
	} else {
		merged = metadata.Overlay(local, remote)
	}
	if c.opts.AutoImprint {
		merged = merged.FixPublisher(c.opts.Imprints)
	}
	note := TagNote(c.opts.Version, c.client.Name(), remote.IssueID, c.opts.Now())
	return merged.Replace(metadata.WithNotes(metadata.CombineNotes(priorNotes, note, c.opts.NoteMarker)))
}

// TagNote is the paragraph recording where tags came from.
func TagNote(version, source, issueID string, at time.Time) string {
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("Tagged with comictag %s using info from %s on %s. [Issue ID %s]",
		version, source, at.Format("2006-01-02 15:04:05"), issueID)
}

func hintFor(e Entry) string {
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "raise autotag.archive_timeout_seconds or check catalog latency"
	case errors.Is(e.Err, identification.ErrCatalogUnavailable), errors.Is(e.Err, services.ErrCatalog):
		return "check network access and catalog.api_key"
	case errors.Is(e.Err, archive.ErrNotWritable):
		return "check file and directory permissions"
	default:
		return "check the archive with `comictag identify`"
	}
}
