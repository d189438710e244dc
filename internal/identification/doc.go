// Package identification matches a local comic issue against catalog
// candidates and classifies the result.
//
// Engine.Identify builds a catalog query from local metadata, pages through
// the candidates, scores each by series name and cover similarity, and
// applies Decide to the surviving matches. Decide is the only mapping from
// scored matches to an Outcome; callers use the Outcome to choose between
// saving automatically and asking for review.
//
// The engine holds no per-call state and performs no I/O beyond the injected
// catalog.Client and catalog.ImageFetcher, so identical catalog responses
// always yield identical results. Catalog failures are returned as
// ErrCatalogUnavailable and are never reported as NoMatch.
package identification
