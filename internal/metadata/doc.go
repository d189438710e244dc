// Package metadata defines the canonical comic issue record and the
// non-destructive operations used to combine records from different sources.
//
// Overlay layers a newer record over an older one, preferring non-empty
// incoming values and unioning set-valued fields. Replace returns a copy with
// only the named fields changed. CombineNotes maintains a single
// marker-tagged paragraph inside free-form notes so repeated tagging never
// accumulates duplicate text.
//
// Values are treated as immutable by every exported function: inputs are
// deep-copied before modification.
package metadata
