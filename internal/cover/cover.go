package cover

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"comictag/internal/metadata"
)

// MaxDistance is the largest possible distance between two hashes.
const MaxDistance = 64

// Algorithm names a perceptual hash.
type Algorithm string

const (
	AlgorithmAverage    Algorithm = "ahash"
	AlgorithmDifference Algorithm = "dhash"
	AlgorithmPerception Algorithm = "phash"
)

// ErrDecode is returned when image bytes cannot be decoded.
var ErrDecode = errors.New("cover: decode image")

// Options configures a Scorer.
type Options struct {
	Algorithm         string
	BorderCropPercent int
	BadScore          int
}

// Scorer hashes and compares cover images. It is safe for concurrent use.
type Scorer struct {
	algorithm   Algorithm
	cropPercent int
	badScore    int
}

// Hash is the perceptual hash of a cover. Right is set for double-wide
// images.
type Hash struct {
	full  *goimagehash.ImageHash
	right *goimagehash.ImageHash
}

// IsZero reports whether the hash was never computed.
func (h Hash) IsZero() bool {
	return h.full == nil
}

// NewScorer validates opts and returns a Scorer.
func NewScorer(opts Options) (*Scorer, error) {
	algorithm := Algorithm(opts.Algorithm)
	if algorithm == "" {
		algorithm = AlgorithmAverage
	}
	switch algorithm {
	case AlgorithmAverage, AlgorithmDifference, AlgorithmPerception:
	default:
		return nil, fmt.Errorf("cover: unsupported hash algorithm %q", opts.Algorithm)
	}
	if opts.BorderCropPercent < 0 || opts.BorderCropPercent >= 50 {
		return nil, fmt.Errorf("cover: border crop percent %d out of range", opts.BorderCropPercent)
	}
	if opts.BadScore < 0 || opts.BadScore > MaxDistance {
		return nil, fmt.Errorf("cover: bad score %d out of range", opts.BadScore)
	}
	return &Scorer{algorithm: algorithm, cropPercent: opts.BorderCropPercent, badScore: opts.BadScore}, nil
}

// BadScore returns the largest distance still considered a good match.
func (s *Scorer) BadScore() int {
	return s.badScore
}

// IsGood reports whether distance is within the good-match bound.
func (s *Scorer) IsGood(distance int) bool {
	return distance >= 0 && distance <= s.badScore
}

// HashBytes decodes and hashes encoded image data.
func (s *Scorer) HashBytes(data []byte) (Hash, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return s.HashImage(img)
}

// HashImage hashes a decoded image.
func (s *Scorer) HashImage(img image.Image) (Hash, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Hash{}, fmt.Errorf("%w: empty image", ErrDecode)
	}
	full, err := s.hash(crop(img, bounds, s.cropPercent))
	if err != nil {
		return Hash{}, err
	}
	h := Hash{full: full}
	if bounds.Dx() > bounds.Dy() {
		right := image.Rect(bounds.Min.X+bounds.Dx()/2, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		if h.right, err = s.hash(crop(img, right, s.cropPercent)); err != nil {
			return Hash{}, err
		}
	}
	return h, nil
}

// Distance returns the Hamming distance between a local cover and a
// candidate cover. For double-wide local covers the smaller of the full and
// right-half distances is returned.
func (s *Scorer) Distance(local, candidate Hash) (int, error) {
	if local.IsZero() || candidate.IsZero() {
		return MaxDistance, errors.New("cover: distance of empty hash")
	}
	best, err := local.full.Distance(candidate.full)
	if err != nil {
		return MaxDistance, fmt.Errorf("cover: %w", err)
	}
	if local.right != nil {
		d, err := local.right.Distance(candidate.full)
		if err != nil {
			return MaxDistance, fmt.Errorf("cover: %w", err)
		}
		best = min(best, d)
	}
	return best, nil
}

// Compare hashes both images and returns their distance.
func (s *Scorer) Compare(local, candidate []byte) (int, error) {
	lh, err := s.HashBytes(local)
	if err != nil {
		return MaxDistance, err
	}
	ch, err := s.HashBytes(candidate)
	if err != nil {
		return MaxDistance, err
	}
	return s.Distance(lh, ch)
}

func (s *Scorer) hash(img image.Image) (*goimagehash.ImageHash, error) {
	switch s.algorithm {
	case AlgorithmDifference:
		return goimagehash.DifferenceHash(img)
	case AlgorithmPerception:
		return goimagehash.PerceptionHash(img)
	default:
		return goimagehash.AverageHash(img)
	}
}

// crop copies the region r of img with percent trimmed from every edge.
func crop(img image.Image, r image.Rectangle, percent int) image.Image {
	if percent > 0 {
		dx := r.Dx() * percent / 100
		dy := r.Dy() * percent / 100
		inner := image.Rect(r.Min.X+dx, r.Min.Y+dy, r.Max.X-dx, r.Max.Y-dy)
		if !inner.Empty() {
			r = inner
		}
	}
	if r == img.Bounds() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}

// IsCanonical reports whether index is the page the metadata designates as
// the cover: the flagged front cover, or page 0 when none is flagged.
func IsCanonical(md metadata.Metadata, index int) bool {
	return index == md.CoverIndex()
}
