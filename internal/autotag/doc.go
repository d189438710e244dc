// Package autotag identifies and tags a batch of archives.
//
// Coordinator.Run processes archives on a bounded worker pool. Each archive
// is handled start to finish by one worker: read local metadata, fall back
// to the filename, identify, then fetch, merge and write when the Outcome
// allows an automatic save. Workers never touch the Summary; they hand one
// Entry per archive to the coordinator goroutine, which is the only writer.
//
// A failing archive is recorded in its bucket and never stops the batch.
// Cancelling the context stops new archives from starting; those are
// reported as Skipped. A write that has started always completes.
package autotag
