// Package cache stores catalog responses in SQLite.
//
// A Store owns the database; Wrap returns a catalog.Client and
// catalog.ImageFetcher that answer from fresh rows and fall through to the
// wrapped catalog otherwise. Cache failures are logged and never fail a
// lookup: the remote answer is always authoritative.
package cache
