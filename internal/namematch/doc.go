// Package namematch normalizes and scores series names.
//
// Normalize folds Unicode, case, and punctuation and removes edition and
// format qualifiers that scanners commonly add to filenames. Score is an
// edit-distance ratio over normalized forms in the range 0-100; it is
// symmetric and returns 100 for identical non-empty names. Search filters
// and ranks catalog candidates against a threshold.
package namematch
