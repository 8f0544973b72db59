// Package dataset scans a LoRA training directory and orders its images the
// same way for every stage of the pipeline.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lehigh-university-libraries/loraprep/internal/natsort"
)

// ExtSet is a set of lower-case extensions with a leading dot.
type ExtSet map[string]bool

// Has reports whether ext (any case) is in the set.
func (s ExtSet) Has(ext string) bool {
	return s[strings.ToLower(ext)]
}

const (
	// CanonicalExt is the format every convertible image ends up in.
	CanonicalExt = ".jpg"
	// CaptionExt is the extension of caption sidecar files.
	CaptionExt = ".txt"
)

var (
	// ConvertibleExts are re-encoded to CanonicalExt by the normalizer.
	ConvertibleExts = ExtSet{".avif": true, ".png": true, ".webp": true, ".jpeg": true}

	// RenameExts are renumbered by the renamer.
	RenameExts = ExtSet{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
		".bmp": true, ".gif": true, ".avif": true,
	}

	// CaptionExts are sent to the captioning backend.
	CaptionExts = ExtSet{
		".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
		".bmp": true, ".gif": true,
	}
)

// List returns the base names of regular files directly inside dir whose
// extension is in exts. The result is unordered; use Sort.
func List(dir string, exts ExtSet) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !exts.Has(filepath.Ext(entry.Name())) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Sort orders file names by natural key of the stem, then case-folded
// extension, then case-folded name. Raw name breaks any remaining tie so the
// order is total.
func Sort(names []string) {
	type sortKey struct {
		name string
		stem natsort.Key
		ext  string
		full string
	}

	fold := cases.Fold()
	keys := make([]sortKey, len(names))
	for i, name := range names {
		ext := filepath.Ext(name)
		keys[i] = sortKey{
			name: name,
			stem: natsort.New(strings.TrimSuffix(name, ext)),
			ext:  fold.String(ext),
			full: fold.String(name),
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if c := natsort.Compare(a.stem, b.stem); c != 0 {
			return c < 0
		}
		if a.ext != b.ext {
			return a.ext < b.ext
		}
		if a.full != b.full {
			return a.full < b.full
		}
		return a.name < b.name
	})

	for i := range keys {
		names[i] = keys[i].name
	}
}

// Sorted lists dir and returns the names in canonical order.
func Sorted(dir string, exts ExtSet) ([]string, error) {
	names, err := List(dir, exts)
	if err != nil {
		return nil, err
	}
	Sort(names)
	return names, nil
}

// Prefix is the renumbering prefix for dir: its base name.
func Prefix(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}

// SidecarPath returns the caption file path for an image.
func SidecarPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + CaptionExt
}

// SplitExt splits name into stem and extension.
func SplitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}
