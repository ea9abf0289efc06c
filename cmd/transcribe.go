package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/logger"
	"github.com/calyptra/fnchat/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file]",
	Short: "Transcribe a document image to text",
	Long:  `Transcribe a document image to plain text using the configured vision model.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		if !cfg.IsValid() {
			log.Fatalf("No usable profile configured; run 'fnchat profile add' first")
		}
		if cfg.VisionModel() == "" {
			log.Fatalf("Active profile has no vision model configured")
		}

		client := transcribe.NewClient(cfg, logger.New(debugFlag))
		text, err := client.TranscribeFile(context.Background(), args[0])
		if err != nil {
			log.Fatalf("Transcription failed: %v", err)
		}

		fmt.Println(text)
	},
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}
