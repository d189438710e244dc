package metadata

// Override changes one field of a copy produced by Replace.
type Override func(*Metadata)

// Replace returns a copy of m with only the fields named by overrides changed.
func (m Metadata) Replace(overrides ...Override) Metadata {
	out := m.Clone()
	for _, override := range overrides {
		if override != nil {
			override(&out)
		}
	}
	return out
}

// WithNotes replaces the notes text.
func WithNotes(v string) Override {
	return func(m *Metadata) { m.Notes = v }
}

// WithPages replaces the page list with a copy of v.
func WithPages(v []Page) Override {
	return func(m *Metadata) { m.Pages = cloneSlice(v) }
}
