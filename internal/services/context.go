package services

import "context"

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	archiveKey contextKey = "archive"
	stepKey    contextKey = "step"
)

// WithRunID annotates context with the batch run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithArchive annotates context with the archive path being processed.
func WithArchive(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, archiveKey, path)
}

// ArchiveFromContext returns the archive path if present.
func ArchiveFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(archiveKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStep annotates context with the per-archive pipeline step
// (read, identify, fetch, write).
func WithStep(ctx context.Context, step string) context.Context {
	if step == "" {
		return ctx
	}
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the pipeline step if present.
func StepFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stepKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
