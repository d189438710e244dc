// Package cover compares local and catalog cover images.
//
// Images are decoded (JPEG, PNG, GIF and WebP), optionally cropped by a
// border percentage, and reduced to a 64-bit perceptual hash. The distance
// between two covers is the Hamming distance of their hashes, 0 for
// identical images and 64 at most. Distances at or below the configured bad
// score count as a good cover match.
//
// The default algorithm is the average hash: the image is scaled to 8x8
// grayscale and each bit records whether a pixel is brighter than the mean.
// Difference and DCT perception hashes are selectable.
//
// Covers wider than they are tall are treated as double-page spreads: the
// right half is hashed as well and the smaller distance wins.
package cover
