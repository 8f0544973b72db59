package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/loraprep/internal/pipeline"
)

func newPrepareCmd() *cobra.Command {
	var flags captionFlags

	cmd := &cobra.Command{
		Use:   "prepare [dir]",
		Short: "Convert, renumber and caption a folder of images",
		Long: `Runs the whole preparation pipeline on a folder:

  1. convert .avif/.png/.webp/.jpeg images to .jpg (originals are removed)
  2. rename every image to <folder><index><ext> in natural order
  3. write a caption .txt file for every image

Anything not given as a flag is asked for interactively.`,
		Example: `  # Interactive
  loraprep prepare

  # Fully specified
  loraprep prepare ./tok_woman --type character --trigger "tok woman" --summary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &asker{}
			defer a.Close()

			dir, err := dirArg(a, args)
			if err != nil {
				return err
			}
			opts, err := flags.options(a, dir, pipeline.StageAll)
			if err != nil {
				return err
			}
			return pipeline.Run(cmd.Context(), opts)
		},
	}

	flags.bind(cmd)
	return cmd
}
