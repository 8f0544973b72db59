// Package convert re-encodes the images of a directory to JPEG in place.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/loraprep/internal/dataset"
)

// Quality is the JPEG quality used for every converted image.
const Quality = 95

// Conversion records one source file replaced by a JPEG.
type Conversion struct {
	Source string `yaml:"source"`
	Dest   string `yaml:"dest"`
}

// Result is the outcome of converting a single file.
type Result struct {
	Conversion
	Err error
}

// Failure is a file that could not be converted.
type Failure struct {
	Path string
	Err  error
}

const avifHint = "If AVIF files fail to open, install libavif so the system decoder is used instead of the bundled one."

// BatchError lists every file that failed during Normalize. Files that
// converted successfully stay converted.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	b.WriteString("failed to convert some images to " + dataset.CanonicalExt + ":")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n- %s: %v", f.Path, f.Err)
	}
	b.WriteString("\n" + avifHint)
	return b.String()
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Normalize converts every .avif, .png, .webp and .jpeg file directly inside
// dir to .jpg and removes the original. It keeps going past per-file errors
// and returns them together as a *BatchError after the scan.
func Normalize(ctx context.Context, dir string) ([]Conversion, error) {
	dir = filepath.Clean(dir)
	names, err := dataset.Sorted(dir, dataset.ConvertibleExts)
	if err != nil {
		return nil, err
	}

	var converted []Conversion
	var failures []Failure
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return converted, err
		}

		res := convertFile(dir, name)
		if res.Err != nil {
			slog.Error("Failed to convert image", "path", res.Source, "err", res.Err)
			failures = append(failures, Failure{Path: res.Source, Err: res.Err})
			continue
		}
		slog.Info("Converted image", "source", res.Source, "dest", res.Dest)
		converted = append(converted, res.Conversion)
	}

	if len(failures) > 0 {
		return converted, &BatchError{Failures: failures}
	}
	return converted, nil
}

func convertFile(dir, name string) Result {
	source := filepath.Join(dir, name)
	res := Result{Conversion: Conversion{Source: source}}

	data, err := os.ReadFile(source)
	if err != nil {
		res.Err = fmt.Errorf("failed to read image: %w", err)
		return res
	}

	encoded, err := reencode(source, data)
	if err != nil {
		res.Err = err
		return res
	}

	stem, ext := dataset.SplitExt(name)
	dest, err := writeExclusive(dir, stem, strings.ToLower(strings.TrimPrefix(ext, ".")), encoded)
	if err != nil {
		res.Err = err
		return res
	}
	res.Dest = dest

	if err := os.Remove(source); err != nil {
		res.Err = fmt.Errorf("converted to %s but failed to remove original: %w", dest, err)
	}
	return res
}

// reencode decodes data, flattens it to opaque RGB and encodes it as JPEG,
// carrying over any EXIF block.
func reencode(path string, data []byte) ([]byte, error) {
	src, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, toRGB(src), &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	raw := extractEXIF(data)
	if !validEXIF(path, raw) {
		return buf.Bytes(), nil
	}
	withEXIF, err := insertEXIF(buf.Bytes(), raw)
	if err != nil {
		slog.Warn("Dropping EXIF block", "path", path, "err", err)
		return buf.Bytes(), nil
	}
	return withEXIF, nil
}

func decode(path string, data []byte) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".avif") {
		return avif.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// toRGB composites src over opaque black, dropping the alpha channel.
func toRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.Black, image.Point{}, draw.Src)
	draw.Draw(dst, b, src, b.Min, draw.Over)
	return dst
}

// destCandidates returns the destination names to try in order. The last
// one is random so the list always ends in a free name.
func destCandidates(dir, stem, ext string) []string {
	return []string{
		filepath.Join(dir, stem+dataset.CanonicalExt),
		filepath.Join(dir, fmt.Sprintf("%s__from_%s%s", stem, ext, dataset.CanonicalExt)),
		filepath.Join(dir, fmt.Sprintf("%s__from_%s_%s%s", stem, ext, hexUUID(), dataset.CanonicalExt)),
	}
}

// writeExclusive writes data to the first free candidate name. Files are
// opened with O_EXCL, so an existing file is never overwritten.
func writeExclusive(dir, stem, ext string, data []byte) (string, error) {
	for _, dest := range destCandidates(dir, stem, ext) {
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dest, err)
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(dest)
			return "", fmt.Errorf("failed to write %s: %w", dest, errors.Join(werr, cerr))
		}
		return dest, nil
	}
	return "", fmt.Errorf("no free destination name for %s", stem)
}

func hexUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
