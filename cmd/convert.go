package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/loraprep/internal/pipeline"
)

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [dir]",
		Short: "Convert .avif/.png/.webp/.jpeg images in a folder to .jpg",
		Long: `Re-encodes every .avif, .png, .webp and .jpeg file in the folder as a
quality 95 JPG with the same name, keeping EXIF metadata when present.
The original is deleted once the JPG is written. An existing file is never
overwritten: a "__from_<ext>" suffix is added instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &asker{}
			defer a.Close()

			dir, err := dirArg(a, args)
			if err != nil {
				return err
			}
			return pipeline.Run(cmd.Context(), pipeline.Options{Dir: dir, Stages: pipeline.StageConvert})
		},
	}
}
