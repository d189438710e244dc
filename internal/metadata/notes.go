package metadata

import "strings"

// CombineNotes merges notes into existing free-form text.
//
// When existing already contains notes verbatim it is returned unchanged.
// When existing contains marker, everything from the start of the line
// holding the last marker onward is replaced by notes; text written before
// that line is kept. Otherwise notes is appended as a new paragraph.
func CombineNotes(existing, notes, marker string) string {
	existing = strings.TrimSpace(existing)
	notes = strings.TrimSpace(notes)
	switch {
	case notes == "":
		return existing
	case existing == "":
		return notes
	case strings.Contains(existing, notes):
		return existing
	}
	if marker != "" {
		if idx := strings.LastIndex(existing, marker); idx >= 0 {
			lineStart := strings.LastIndex(existing[:idx], "\n") + 1
			kept := strings.TrimSpace(existing[:lineStart])
			if kept == "" {
				return notes
			}
			return kept + "\n\n" + notes
		}
	}
	return existing + "\n\n" + notes
}
