package services_test

import (
	"context"
	"testing"

	"comictag/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithArchive(ctx, "/comics/x.cbz")
	ctx = services.WithStep(ctx, "identify")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if path, ok := services.ArchiveFromContext(ctx); !ok || path != "/comics/x.cbz" {
		t.Fatalf("unexpected archive: %v %v", path, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "identify" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
