package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "loraprep",
		Short: "Prepare image folders for LoRA training with LLM-generated captions",
		Long: `loraprep prepares a folder of images for fine-tuning an image model.

It converts images to JPG, renumbers them after the folder name and writes
one caption .txt file per image using a vision-language model, either a
local llama.cpp model or a remote chat-completions endpoint.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newPrepareCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newRenameCmd())
	cmd.AddCommand(newCaptionCmd())

	return cmd
}
