// Package archive reads and writes comic book archives.
//
// An Archive exposes page images in reading order and the tag blocks stored
// alongside them. Tag blocks are addressed by Style. Legacy styles (cix, cbi,
// comet) are detected but not decoded here; the comictag style stores the
// metadata record as a JSON entry inside the archive.
//
// CBZ archives are rewritten through a temporary file in the same directory
// and renamed into place, so a failed write leaves the original intact.
package archive
