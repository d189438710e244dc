// Package services defines shared plumbing consumed by the identification
// engine, the batch coordinator, and the catalog integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch run IDs, archive paths, and the
//     current pipeline step so log lines can be correlated per archive.
//   - Structured error markers plus the Wrap helper that translate failures
//     into the batch summary buckets (fetch failure vs write failure).
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform across archives.
package services
