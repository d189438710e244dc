package metadata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed imprints.yaml
var defaultImprintsYAML []byte

// ImprintTable maps imprint names to their parent publisher.
type ImprintTable struct {
	parents map[string]string
}

// DefaultImprints returns the built-in imprint table.
func DefaultImprints() (ImprintTable, error) {
	return ParseImprints(defaultImprintsYAML)
}

// LoadImprints reads a YAML document of the form
// "Parent: [Imprint, ...]" from path and layers it over the built-in table.
func LoadImprints(path string) (ImprintTable, error) {
	table, err := DefaultImprints()
	if err != nil {
		return ImprintTable{}, err
	}
	if strings.TrimSpace(path) == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ImprintTable{}, fmt.Errorf("read imprints file: %w", err)
	}
	extra, err := ParseImprints(data)
	if err != nil {
		return ImprintTable{}, fmt.Errorf("%s: %w", path, err)
	}
	for imprint, parent := range extra.parents {
		table.parents[imprint] = parent
	}
	return table, nil
}

// ParseImprints decodes a YAML imprint document.
func ParseImprints(data []byte) (ImprintTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return ImprintTable{}, fmt.Errorf("parse imprints: %w", err)
	}
	table := ImprintTable{parents: make(map[string]string)}
	for parent, imprints := range raw {
		parent = strings.TrimSpace(parent)
		if parent == "" {
			continue
		}
		for _, imprint := range imprints {
			if key := strings.ToLower(strings.TrimSpace(imprint)); key != "" {
				table.parents[key] = parent
			}
		}
	}
	return table, nil
}

// Parent returns the parent publisher of imprint.
func (t ImprintTable) Parent(imprint string) (string, bool) {
	parent, ok := t.parents[strings.ToLower(strings.TrimSpace(imprint))]
	return parent, ok
}

// Len reports the number of known imprints.
func (t ImprintTable) Len() int {
	return len(t.parents)
}

// FixPublisher returns a copy whose Publisher names the parent publisher
// when the record currently names a known imprint. The imprint is kept in
// Imprint.
func (m Metadata) FixPublisher(table ImprintTable) Metadata {
	out := m.Clone()
	if parent, ok := table.Parent(out.Publisher); ok {
		if strings.TrimSpace(out.Imprint) == "" {
			out.Imprint = out.Publisher
		}
		out.Publisher = parent
		return out
	}
	if strings.TrimSpace(out.Publisher) == "" {
		if parent, ok := table.Parent(out.Imprint); ok {
			out.Publisher = parent
		}
	}
	return out
}
