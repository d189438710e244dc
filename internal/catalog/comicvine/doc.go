// Package comicvine implements catalog.Client and catalog.ImageFetcher on
// top of the Comic Vine REST API.
//
// Searches run in two steps: a volume search by series name, then an issue
// listing filtered by the matching volume ids and the issue number. Requests
// share a token-bucket rate limiter so batch runs stay under the API's
// request budget. Failures are reported as *catalog.Error values with the
// API status code mapped to catalog codes.
package comicvine
