// Package catalog defines the contract between comictag and a remote issue
// catalog.
//
// A Client searches for candidate issues and fetches full metadata for one
// issue. An ImageFetcher downloads cover images. Implementations report
// failures as *Error values carrying the catalog name and a machine-readable
// Code so callers can tell "nothing found" from "could not ask".
//
// Collect pages through Search results in fixed-size pages up to MaxResults
// to bound remote-call volume.
package catalog
