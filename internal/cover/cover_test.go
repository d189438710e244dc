package cover

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"comictag/internal/metadata"
)

// gradient fills w x h with a horizontal ramp; reversed ramps run bright to
// dark.
func gradient(w, h int, reversed bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		v := uint8(x * 255 / (w - 1))
		if reversed {
			v = 255 - v
		}
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newScorer(t *testing.T, opts Options) *Scorer {
	t.Helper()
	s, err := NewScorer(opts)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func TestCompareIdenticalAndOpposite(t *testing.T) {
	for _, algorithm := range []string{"ahash", "dhash", "phash"} {
		t.Run(algorithm, func(t *testing.T) {
			s := newScorer(t, Options{Algorithm: algorithm, BorderCropPercent: 10, BadScore: 16})
			a := encode(t, gradient(120, 180, false))
			d, err := s.Compare(a, a)
			if err != nil {
				t.Fatalf("Compare: %v", err)
			}
			if d != 0 || !s.IsGood(d) {
				t.Fatalf("identical covers distance = %d", d)
			}
		})
	}

	s := newScorer(t, Options{BadScore: 16})
	d, err := s.Compare(encode(t, gradient(120, 180, false)), encode(t, gradient(120, 180, true)))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if s.IsGood(d) {
		t.Fatalf("opposite covers should be a bad match, distance %d", d)
	}
}

func TestDoubleWideUsesRightHalf(t *testing.T) {
	spread := image.NewRGBA(image.Rect(0, 0, 200, 100))
	left := gradient(100, 100, true)
	right := gradient(100, 100, false)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			spread.Set(x, y, left.At(x, y))
			spread.Set(x+100, y, right.At(x, y))
		}
	}
	s := newScorer(t, Options{BadScore: 16})
	d, err := s.Compare(encode(t, spread), encode(t, right))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if d != 0 {
		t.Fatalf("expected right half to match exactly, got %d", d)
	}
}

func TestHashBytesRejectsGarbage(t *testing.T) {
	s := newScorer(t, Options{BadScore: 16})
	if _, err := s.HashBytes([]byte("not an image")); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestNewScorerValidates(t *testing.T) {
	bad := []Options{
		{Algorithm: "whash"},
		{BorderCropPercent: 50},
		{BadScore: 65},
		{BadScore: -1},
	}
	for _, opts := range bad {
		if _, err := NewScorer(opts); err == nil {
			t.Fatalf("expected error for %+v", opts)
		}
	}
}

func TestDistanceOfEmptyHash(t *testing.T) {
	s := newScorer(t, Options{BadScore: 16})
	if d, err := s.Distance(Hash{}, Hash{}); err == nil || d != MaxDistance {
		t.Fatalf("expected error and max distance, got %d %v", d, err)
	}
}

func TestIsCanonical(t *testing.T) {
	md := metadata.Metadata{}
	if !IsCanonical(md, 0) || IsCanonical(md, 1) {
		t.Fatal("implicit cover should be page 0")
	}
	md.Pages = []metadata.Page{{Index: 0}, {Index: 2, FrontCover: true}}
	if !IsCanonical(md, 2) || IsCanonical(md, 0) {
		t.Fatal("flagged page should be canonical")
	}
}
