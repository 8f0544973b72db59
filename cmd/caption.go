package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/loraprep/internal/pipeline"
	"github.com/lehigh-university-libraries/loraprep/internal/prompts"
)

// captionFlags are shared by the prepare and caption commands.
type captionFlags struct {
	captionType string
	trigger     string
	length      string
	style       string
	promptFile  string
	summary     bool
}

func (f *captionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.captionType, "type", "", "Caption type (character, style, or a name from --prompts)")
	cmd.Flags().StringVar(&f.trigger, "trigger", "", "Trigger word(s) for character captions, e.g. 'tok woman'")
	cmd.Flags().StringVar(&f.length, "length", prompts.DefaultLength, "Caption length (short, medium, long)")
	cmd.Flags().StringVar(&f.style, "style", "", "Style descriptor appended to every caption, e.g. 'anime style'")
	cmd.Flags().StringVar(&f.promptFile, "prompts", "", "YAML file with extra or replacement prompt templates")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "Print a YAML summary of the run to stdout")
}

// options asks for anything the flags left out and builds the run options.
func (f *captionFlags) options(a *asker, dir string, stages pipeline.Stage) (pipeline.Options, error) {
	lib := prompts.Default()
	if f.promptFile != "" {
		var err error
		lib, err = prompts.LoadFile(f.promptFile)
		if err != nil {
			return pipeline.Options{}, err
		}
	}

	if err := a.fill(&f.captionType, "Enter caption type: (character or style):"); err != nil {
		return pipeline.Options{}, err
	}
	if !lib.Has(f.captionType) {
		return pipeline.Options{}, fmt.Errorf("invalid type %q: choose one of %v", f.captionType, lib.Names())
	}
	if lib.NeedsTrigger(f.captionType) {
		if err := a.fill(&f.trigger, "Enter the trigger word(s) Ex: 'tok woman':"); err != nil {
			return pipeline.Options{}, err
		}
	}
	if f.captionType == "style" {
		if err := a.fill(&f.style, "Describe the style (appended to every caption):"); err != nil {
			return pipeline.Options{}, err
		}
	}

	var summary io.Writer
	if f.summary {
		summary = os.Stdout
	}

	return pipeline.Options{
		Dir:         dir,
		Stages:      stages,
		CaptionType: f.captionType,
		Trigger:     f.trigger,
		Length:      f.length,
		StyleSuffix: f.style,
		Prompts:     lib,
		Summary:     summary,
	}, nil
}

func newCaptionCmd() *cobra.Command {
	var flags captionFlags

	cmd := &cobra.Command{
		Use:   "caption [dir]",
		Short: "Write a caption .txt file for every image in a folder",
		Long: `Captions every image in the folder in natural order and writes the caption
to a .txt file with the same name. Existing captions are overwritten.

The backend is chosen by CAPTION_BACKEND (local, remote, gemini, ollama).
A failure on one image is logged and the run continues.`,
		Example: `  # Caption a character dataset with the remote endpoint
  CAPTION_BACKEND=remote loraprep caption ./tok_woman --type character --trigger "tok woman"

  # Caption a style dataset and append a style descriptor
  loraprep caption ./inkwash --type style --style "ink wash painting"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &asker{}
			defer a.Close()

			dir, err := dirArg(a, args)
			if err != nil {
				return err
			}
			opts, err := flags.options(a, dir, pipeline.StageCaption)
			if err != nil {
				return err
			}
			return pipeline.Run(cmd.Context(), opts)
		},
	}

	flags.bind(cmd)
	return cmd
}
