// Package transform migrates metadata fields between tagging conventions.
//
// Each rule is toggled independently and is idempotent: applying the same
// Options twice yields the same record as applying them once.
package transform

import (
	"strings"

	"comictag/internal/config"
	"comictag/internal/metadata"
)

// Options selects the rules Apply runs.
type Options struct {
	AssumeLoneCreditPrimary bool
	CopyCharactersToTags    bool
	CopyTeamsToTags         bool
	CopyLocationsToTags     bool
	CopyStoryArcsToTags     bool
	CopyNotesToComments     bool
	CopyWebLinkToComments   bool
	// NoteMarker identifies the tool-generated paragraph inside notes.
	NoteMarker string
}

// OptionsFromConfig maps the [transform] configuration section.
func OptionsFromConfig(cfg *config.Config) Options {
	t := cfg.Transform
	return Options{
		AssumeLoneCreditPrimary: t.AssumeLoneCreditPrimary,
		CopyCharactersToTags:    t.CopyCharactersToTags,
		CopyTeamsToTags:         t.CopyTeamsToTags,
		CopyLocationsToTags:     t.CopyLocationsToTags,
		CopyStoryArcsToTags:     t.CopyStoryArcsToTags,
		CopyNotesToComments:     t.CopyNotesToComments,
		CopyWebLinkToComments:   t.CopyWebLinkToComments,
		NoteMarker:              cfg.Identifier.TagNoteMarker,
	}
}

// Enabled reports whether any rule is on.
func (o Options) Enabled() bool {
	return o.AssumeLoneCreditPrimary || o.CopyCharactersToTags || o.CopyTeamsToTags ||
		o.CopyLocationsToTags || o.CopyStoryArcsToTags || o.CopyNotesToComments ||
		o.CopyWebLinkToComments
}

// Apply returns a copy of md with the selected rules applied.
func Apply(md metadata.Metadata, opts Options) metadata.Metadata {
	out := md.Clone()
	if opts.CopyCharactersToTags {
		out.Tags = metadata.UnionSet(out.Tags, out.Characters)
	}
	if opts.CopyTeamsToTags {
		out.Tags = metadata.UnionSet(out.Tags, out.Teams)
	}
	if opts.CopyLocationsToTags {
		out.Tags = metadata.UnionSet(out.Tags, out.Locations)
	}
	if opts.CopyStoryArcsToTags {
		out.Tags = metadata.UnionSet(out.Tags, out.StoryArcs)
	}
	if opts.CopyNotesToComments {
		out.Description = metadata.CombineNotes(out.Description, out.Notes, opts.NoteMarker)
	}
	if opts.CopyWebLinkToComments && strings.TrimSpace(out.WebLink) != "" {
		out.Description = metadata.CombineNotes(out.Description, out.WebLink, "")
	}
	if opts.AssumeLoneCreditPrimary {
		markLoneCreditsPrimary(out.Credits)
	}
	return out
}

// markLoneCreditsPrimary flags every credit whose role is held by one person,
// counting repeated rows for the same person once.
func markLoneCreditsPrimary(credits []metadata.Credit) {
	people := make(map[string]map[string]struct{}, len(credits))
	for _, c := range credits {
		role := foldKey(c.Role)
		if people[role] == nil {
			people[role] = make(map[string]struct{})
		}
		people[role][foldKey(c.Person)] = struct{}{}
	}
	for i, c := range credits {
		if len(people[foldKey(c.Role)]) == 1 {
			credits[i].Primary = true
		}
	}
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
