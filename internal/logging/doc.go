// Package logging assembles structured slog loggers and formatting helpers used
// across comictag.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code automatically tags log
// lines with the batch run ID, the archive being processed, and the current
// step. A no-op logger is provided for tests and wiring that cannot fail.
package logging
