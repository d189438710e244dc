package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"comictag/internal/metadata"
)

// Style identifies a tag block format.
type Style string

const (
	StyleCIX      Style = "cix"
	StyleCBI      Style = "cbi"
	StyleCoMet    Style = "comet"
	StyleComictag Style = "comictag"
)

var styles = []Style{StyleCIX, StyleCBI, StyleCoMet, StyleComictag}

var (
	// ErrUnsupportedStyle is returned for styles this build cannot decode.
	ErrUnsupportedStyle = errors.New("unsupported metadata style")
	// ErrUnsupportedFormat is returned for containers other than CBZ.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrNotWritable is returned when the archive cannot be modified.
	ErrNotWritable = errors.New("archive not writable")
	// ErrMetadataParse marks a malformed tag block.
	ErrMetadataParse = errors.New("metadata parse failure")
	// ErrPageOutOfRange is returned by Page for an invalid index.
	ErrPageOutOfRange = errors.New("page index out of range")
)

// Styles returns every known style.
func Styles() []Style {
	return append([]Style(nil), styles...)
}

// ParseStyle validates a style name.
func ParseStyle(name string) (Style, error) {
	style := Style(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range styles {
		if style == known {
			return style, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedStyle, name)
}

// Archive is a comic book container.
type Archive interface {
	Path() string
	// ReadMetadata decodes the tag block of style. A missing block yields
	// empty metadata and no error.
	ReadMetadata(style Style) (metadata.Metadata, error)
	WriteMetadata(md metadata.Metadata, style Style) error
	HasMetadata(style Style) bool
	// Page returns the encoded image at index in reading order.
	Page(index int) ([]byte, error)
	NumberOfPages() int
	IsWritable() bool
}

// Open opens the archive at path based on its extension.
func Open(path string) (Archive, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbz", ".zip":
		return OpenCBZ(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// IsComicFile reports whether path has an extension Open handles.
func IsComicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbz", ".zip":
		return true
	default:
		return false
	}
}
