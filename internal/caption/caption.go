// Package caption writes one caption sidecar per image in a directory.
package caption

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/loraprep/internal/dataset"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
)

// ErrNoCaption marks an image for which the backend returned no usable text.
var ErrNoCaption = errors.New("backend returned no caption")

// ItemResult is the outcome for one image. Err is nil on success.
type ItemResult struct {
	Image   string
	Sidecar string
	Caption string
	Err     error
}

// Report collects the per-image results of a run.
type Report struct {
	Items []ItemResult
}

// Succeeded counts images that got a sidecar.
func (r *Report) Succeeded() int {
	n := 0
	for _, item := range r.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the images that did not get a sidecar.
func (r *Report) Failed() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}
	return failed
}

// Driver captions the images of a directory one at a time.
type Driver struct {
	Captioner   providers.Captioner
	Prompt      string
	StyleSuffix string
}

// Run captions every image in dir in canonical order and overwrites each
// sidecar. A failure on one image is logged and recorded; the loop moves on.
// Run only returns an error when dir cannot be listed or ctx ends.
func (d *Driver) Run(ctx context.Context, dir string) (*Report, error) {
	dir = filepath.Clean(dir)
	names, err := dataset.Sorted(dir, dataset.CaptionExts)
	if err != nil {
		return nil, err
	}

	report := &Report{Items: make([]ItemResult, 0, len(names))}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		imagePath := filepath.Join(dir, name)
		slog.Info("Captioning", "image", imagePath, "progress", fmt.Sprintf("%d/%d", i+1, len(names)))

		result := d.captionOne(ctx, imagePath)
		if result.Err != nil {
			slog.Error("Failed to caption image", "image", imagePath, "err", result.Err)
		} else {
			slog.Debug("Wrote caption", "sidecar", result.Sidecar, "caption", result.Caption)
		}
		report.Items = append(report.Items, result)
	}

	slog.Info("Captioning complete", "captioned", report.Succeeded(), "failed", len(report.Failed()))
	return report, nil
}

func (d *Driver) captionOne(ctx context.Context, imagePath string) ItemResult {
	result := ItemResult{Image: imagePath, Sidecar: dataset.SidecarPath(imagePath)}

	text, err := d.Captioner.Caption(ctx, imagePath, d.Prompt)
	if err != nil {
		result.Err = fmt.Errorf("%s caption failed: %w", d.Captioner.Name(), err)
		return result
	}
	if text == providers.NoCaptionFound {
		result.Err = ErrNoCaption
		return result
	}

	result.Caption = ApplyStyle(text, d.StyleSuffix)
	if err := os.WriteFile(result.Sidecar, []byte(result.Caption), 0o644); err != nil {
		result.Err = fmt.Errorf("could not write %s: %w", result.Sidecar, err)
	}
	return result
}

// ApplyStyle appends ", suffix" to caption after trimming trailing
// whitespace and periods. An empty suffix leaves caption unchanged.
func ApplyStyle(caption, suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return caption
	}
	trimmed := strings.TrimRightFunc(caption, func(r rune) bool {
		return r == '.' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if trimmed == "" {
		return suffix
	}
	return trimmed + ", " + suffix
}
