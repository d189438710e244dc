package htmlclean

import (
	"strings"
	"testing"
)

const description = `<p>Alana and <b>Marko</b> flee.</p>` +
	`<script>alert("x")</script>` +
	`<h4>List of covers and their creators:</h4>` +
	`<table><thead><tr><th>Cover</th><th>Name</th></tr></thead>` +
	`<tbody><tr><td>Reg</td><td>Fiona Staples</td></tr></tbody></table>` +
	`<p>The end.</p>`

func TestCleanConvertsToMarkdown(t *testing.T) {
	got := New(false).Clean(description)
	if !strings.Contains(got, "**Marko**") {
		t.Fatalf("expected bold markdown, got %q", got)
	}
	if strings.Contains(got, "alert") || strings.Contains(got, "<script") {
		t.Fatalf("script content survived: %q", got)
	}
	if !strings.Contains(got, "Fiona Staples") || !strings.Contains(got, "|") {
		t.Fatalf("expected markdown table, got %q", got)
	}
}

func TestCleanRemovesTables(t *testing.T) {
	got := New(true).Clean(description)
	if strings.Contains(got, "Fiona Staples") || strings.Contains(got, "List of covers") {
		t.Fatalf("table or its heading survived: %q", got)
	}
	if !strings.Contains(got, "The end.") || !strings.Contains(got, "flee") {
		t.Fatalf("surrounding text lost: %q", got)
	}
}

func TestCleanPassesPlainText(t *testing.T) {
	if got := New(true).Clean("  Just text & more  "); got != "Just text & more" {
		t.Fatalf("plain text changed: %q", got)
	}
	if got := New(false).Clean(""); got != "" {
		t.Fatalf("empty input produced %q", got)
	}
}
