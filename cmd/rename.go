package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/loraprep/internal/pipeline"
)

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [dir]",
		Short: "Renumber the images in a folder after the folder name",
		Long: `Renames every image in the folder to <folder><index><ext>, with indexes
assigned in natural order of the current names ("img2" before "img10").

Do not modify the folder while the rename runs. If a rename fails partway,
the log lists every temporary name and its intended final name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &asker{}
			defer a.Close()

			dir, err := dirArg(a, args)
			if err != nil {
				return err
			}
			return pipeline.Run(cmd.Context(), pipeline.Options{Dir: dir, Stages: pipeline.StageRename})
		},
	}
}
