package metadata

import "strings"

// Overlay layers incoming over base and returns the merged record. Neither
// argument is modified.
//
// Scalar fields take the incoming value only when it is non-empty. Set-valued
// fields are unioned with base entries first. Credits merge on a
// case-insensitive (role, person) identity where a duplicate keeps the later
// primary flag. A non-empty incoming page list replaces the base list.
func Overlay(base, incoming Metadata) Metadata {
	out := base.Clone()

	src := incoming.scalars()
	for i, dst := range out.scalars() {
		if value := strings.TrimSpace(*src[i]); value != "" {
			*dst = *src[i]
		}
	}
	srcInts := incoming.ints()
	for i, dst := range out.ints() {
		if *srcInts[i] != 0 {
			*dst = *srcInts[i]
		}
	}
	srcSets := incoming.sets()
	for i, dst := range out.sets() {
		*dst = UnionSet(*dst, *srcSets[i])
	}

	out.Credits = MergeCredits(base.Credits, incoming.Credits)
	if len(incoming.Pages) > 0 {
		out.Pages = cloneSlice(incoming.Pages)
	}
	return out
}

// UnionSet returns the case-insensitive union of the provided sets, keeping
// the first spelling seen and the order of first appearance. Blank entries
// are dropped.
func UnionSet(sets ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, value := range set {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			key := strings.ToLower(value)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, value)
		}
	}
	return out
}

// MergeCredits combines credit lists so each (role, person) pair appears
// once. Later lists win the primary flag for pairs they repeat.
func MergeCredits(lists ...[]Credit) []Credit {
	var out []Credit
	index := make(map[string]int)
	for _, list := range lists {
		for _, credit := range list {
			credit.Role = strings.TrimSpace(credit.Role)
			credit.Person = strings.TrimSpace(credit.Person)
			if credit.Person == "" {
				continue
			}
			key := creditKey(credit)
			if pos, ok := index[key]; ok {
				out[pos].Primary = credit.Primary
				continue
			}
			index[key] = len(out)
			out = append(out, credit)
		}
	}
	return out
}

func creditKey(c Credit) string {
	return strings.ToLower(c.Role) + "\x00" + strings.ToLower(c.Person)
}
