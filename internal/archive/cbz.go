package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sys/unix"

	"comictag/internal/metadata"
)

const (
	comicInfoName = "ComicInfo.xml"
	cometName     = "CoMet.xml"
	comictagName  = "comictag.json"
	cbiAppIDKey   = `"appID":"ComicBookLover`
	documentVer   = 1
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// document is the on-disk form of the comictag tag block.
type document struct {
	Version  int               `json:"version"`
	Metadata metadata.Metadata `json:"metadata"`
}

// CBZ is a zip-based comic archive.
type CBZ struct {
	path    string
	pages   []string
	entries map[string]struct{}
	comment string
}

// OpenCBZ indexes the zip archive at path.
func OpenCBZ(path string) (*CBZ, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	a := &CBZ{path: path, entries: make(map[string]struct{}, len(r.File)), comment: r.Comment}
	for _, f := range r.File {
		a.entries[f.Name] = struct{}{}
		if f.FileInfo().IsDir() || !isImage(f.Name) || isHidden(f.Name) {
			continue
		}
		a.pages = append(a.pages, f.Name)
	}
	slices.SortFunc(a.pages, naturalCompare)
	return a, nil
}

func (a *CBZ) Path() string { return a.path }

func (a *CBZ) NumberOfPages() int { return len(a.pages) }

// PageNames returns the image entry names in reading order.
func (a *CBZ) PageNames() []string {
	return append([]string(nil), a.pages...)
}

func (a *CBZ) HasMetadata(style Style) bool {
	switch style {
	case StyleCIX:
		return a.hasEntry(comicInfoName)
	case StyleCoMet:
		return a.hasEntry(cometName)
	case StyleCBI:
		return strings.Contains(strings.ReplaceAll(a.comment, " ", ""), cbiAppIDKey)
	case StyleComictag:
		return a.hasEntry(comictagName)
	default:
		return false
	}
}

func (a *CBZ) ReadMetadata(style Style) (metadata.Metadata, error) {
	if style != StyleComictag {
		return metadata.Metadata{}, fmt.Errorf("%w: %s", ErrUnsupportedStyle, style)
	}
	if !a.HasMetadata(style) {
		return metadata.Metadata{}, nil
	}
	data, err := a.readEntry(comictagName)
	if err != nil {
		return metadata.Metadata{}, err
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return metadata.Metadata{}, fmt.Errorf("%w: %s: %w", ErrMetadataParse, comictagName, err)
	}
	if doc.Version > documentVer {
		return metadata.Metadata{}, fmt.Errorf("%w: %s version %d is newer than supported %d", ErrMetadataParse, comictagName, doc.Version, documentVer)
	}
	md := doc.Metadata
	covers := 0
	for _, page := range md.Pages {
		if page.IsCover() {
			covers++
		}
	}
	// Blocks written by other tools may flag several covers; the first wins.
	if covers > 1 {
		md = md.SetCover(md.CoverIndex())
	}
	return md, nil
}

func (a *CBZ) WriteMetadata(md metadata.Metadata, style Style) error {
	if style != StyleComictag {
		return fmt.Errorf("%w: %s", ErrUnsupportedStyle, style)
	}
	if !a.IsWritable() {
		return fmt.Errorf("%w: %s", ErrNotWritable, a.path)
	}
	payload, err := json.MarshalIndent(document{Version: documentVer, Metadata: md}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := a.rewrite(comictagName, payload); err != nil {
		return err
	}
	a.entries[comictagName] = struct{}{}
	return nil
}

func (a *CBZ) Page(index int) ([]byte, error) {
	if index < 0 || index >= len(a.pages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, index, len(a.pages))
	}
	return a.readEntry(a.pages[index])
}

// IsWritable reports whether the archive file and its directory can be
// modified by this process.
func (a *CBZ) IsWritable() bool {
	if err := unix.Access(a.path, unix.W_OK); err != nil {
		return false
	}
	return unix.Access(filepath.Dir(a.path), unix.W_OK|unix.X_OK) == nil
}

func (a *CBZ) hasEntry(name string) bool {
	_, ok := a.entries[name]
	return ok
}

func (a *CBZ) readEntry(name string) ([]byte, error) {
	r, err := zip.OpenReader(a.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(a.path), err)
	}
	defer r.Close()
	f, err := r.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", name, err)
	}
	return data, nil
}

// rewrite copies every entry except name into a temporary archive, appends
// name with payload, and renames the result over the original.
func (a *CBZ) rewrite(name string, payload []byte) (err error) {
	r, err := zip.OpenReader(a.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(a.path), err)
	}
	defer r.Close()

	info, err := os.Stat(a.path)
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(a.path), "."+filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := zip.NewWriter(tmp)
	for _, f := range r.File {
		if f.Name == name {
			continue
		}
		if err = w.Copy(f); err != nil {
			return fmt.Errorf("copy entry %s: %w", f.Name, err)
		}
	}
	entry, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: info.ModTime()})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err = io.Copy(entry, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	if r.Comment != "" {
		if err = w.SetComment(r.Comment); err != nil {
			return fmt.Errorf("set comment: %w", err)
		}
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err = os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod archive: %w", err)
	}
	if err = os.Rename(tmpName, a.path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}

func isImage(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(path.Ext(name)))
}

func isHidden(name string) bool {
	base := path.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(name, "__MACOSX/")
}

// naturalCompare orders names case-insensitively with digit runs compared
// by numeric value, so "page2" sorts before "page10".
func naturalCompare(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for a != "" && b != "" {
		ra, rb := a[0], b[0]
		if isDigit(ra) && isDigit(rb) {
			na, restA := digitRun(a)
			nb, restB := digitRun(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) - len(tb)
			}
			if c := strings.Compare(ta, tb); c != 0 {
				return c
			}
			a, b = restA, restB
			continue
		}
		if ra != rb {
			return int(ra) - int(rb)
		}
		a, b = a[1:], b[1:]
	}
	return len(a) - len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digitRun(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
