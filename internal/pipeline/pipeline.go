// Package pipeline runs the dataset preparation stages in order: convert,
// rename, caption. Each stage finishes before the next one starts.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/loraprep/internal/backend"
	"github.com/lehigh-university-libraries/loraprep/internal/caption"
	"github.com/lehigh-university-libraries/loraprep/internal/config"
	"github.com/lehigh-university-libraries/loraprep/internal/convert"
	"github.com/lehigh-university-libraries/loraprep/internal/dataset"
	"github.com/lehigh-university-libraries/loraprep/internal/prompts"
	"github.com/lehigh-university-libraries/loraprep/internal/providers"
	"github.com/lehigh-university-libraries/loraprep/internal/rename"
	"github.com/lehigh-university-libraries/loraprep/internal/report"
)

// Stage selects which steps run.
type Stage uint8

const (
	StageConvert Stage = 1 << iota
	StageRename
	StageCaption

	StageAll = StageConvert | StageRename | StageCaption
)

// Options describe one run.
type Options struct {
	Dir    string
	Stages Stage

	CaptionType string
	Trigger     string
	Length      string
	StyleSuffix string
	Prompts     *prompts.Library

	// Captioner overrides the configured backend when set.
	Captioner providers.Captioner

	// Summary receives a YAML summary when set.
	Summary io.Writer
}

// Run executes the selected stages against opts.Dir.
func Run(ctx context.Context, opts Options) error {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return fmt.Errorf("cannot open directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", opts.Dir)
	}

	var driver *caption.Driver
	if opts.Stages&StageCaption != 0 {
		// Resolve prompt and backend up front so a configuration problem
		// stops the run before any file is touched.
		prompt, err := renderPrompt(opts)
		if err != nil {
			return err
		}
		captioner := opts.Captioner
		if captioner == nil {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			captioner, err = backend.New(ctx, cfg)
			if err != nil {
				return err
			}
			if c, ok := captioner.(io.Closer); ok {
				defer c.Close()
			}
		}
		driver = &caption.Driver{Captioner: captioner, Prompt: prompt, StyleSuffix: opts.StyleSuffix}
	}

	backendName := ""
	if driver != nil {
		backendName = driver.Captioner.Name()
	}
	summary := report.New(opts.Dir, backendName, opts.CaptionType, opts.StyleSuffix)
	err = runStages(ctx, opts, driver, summary)

	if opts.Summary != nil {
		if werr := summary.Write(opts.Summary); werr != nil {
			slog.Error("Unable to write summary", "err", werr)
		}
	}
	return err
}

func runStages(ctx context.Context, opts Options, driver *caption.Driver, summary *report.Summary) error {
	if opts.Stages&StageConvert != 0 {
		slog.Info("Converting images to JPG...", "dir", opts.Dir)
		converted, err := convert.Normalize(ctx, opts.Dir)
		summary.AddConversions(converted, err)
		if err != nil {
			return err
		}
		slog.Info("Conversion complete", "converted", len(converted))
	}

	if opts.Stages&StageRename != 0 {
		slog.Info("Renaming images in batch...", "dir", opts.Dir, "prefix", dataset.Prefix(opts.Dir))
		moves, err := rename.Renumber(opts.Dir)
		if err != nil {
			return err
		}
		summary.AddMoves(moves)
		slog.Info("Rename complete", "renamed", len(moves))
	}

	if driver != nil {
		slog.Info("Captioning images...", "dir", opts.Dir, "backend", driver.Captioner.Name())
		res, err := driver.Run(ctx, opts.Dir)
		summary.AddCaptions(res)
		if err != nil {
			return err
		}
	}
	return nil
}

func renderPrompt(opts Options) (string, error) {
	lib := opts.Prompts
	if lib == nil {
		lib = prompts.Default()
	}
	return lib.Render(opts.CaptionType, prompts.Vars{
		Trigger: opts.Trigger,
		Length:  opts.Length,
		Style:   opts.StyleSuffix,
		Subject: dataset.Prefix(opts.Dir),
	})
}
