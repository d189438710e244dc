package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFixPublisherMovesImprint(t *testing.T) {
	table, err := DefaultImprints()
	if err != nil {
		t.Fatalf("DefaultImprints: %v", err)
	}
	md := Metadata{Publisher: "Vertigo"}
	got := md.FixPublisher(table)
	if got.Publisher != "DC Comics" || got.Imprint != "Vertigo" {
		t.Fatalf("unexpected result %+v", got)
	}
	if md.Publisher != "Vertigo" {
		t.Fatal("receiver mutated")
	}

	unknown := Metadata{Publisher: "Fantagraphics"}.FixPublisher(table)
	if unknown.Publisher != "Fantagraphics" || unknown.Imprint != "" {
		t.Fatalf("unknown publisher changed: %+v", unknown)
	}

	fromImprint := Metadata{Imprint: "marvel max"}.FixPublisher(table)
	if fromImprint.Publisher != "Marvel" {
		t.Fatalf("expected parent from imprint, got %+v", fromImprint)
	}
}

func TestLoadImprintsLayersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imprints.yaml")
	if err := os.WriteFile(path, []byte("Oni Press:\n  - Lion Forge\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := LoadImprints(path)
	if err != nil {
		t.Fatalf("LoadImprints: %v", err)
	}
	if parent, ok := table.Parent("Lion Forge"); !ok || parent != "Oni Press" {
		t.Fatalf("custom imprint missing: %q %v", parent, ok)
	}
	if _, ok := table.Parent("Vertigo"); !ok {
		t.Fatal("built-in imprint lost")
	}
}

func TestParseImprintsRejectsInvalidYAML(t *testing.T) {
	if _, err := ParseImprints([]byte("- not\n- a map\n")); err == nil {
		t.Fatal("expected error")
	}
}
