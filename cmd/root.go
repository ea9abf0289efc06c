package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/calyptra/fnchat/internal/app"
	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/logger"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "fnchat",
	Short: "A function-calling chat client for your terminal",
	Long:  `fnchat is a terminal chat client for function-calling models, with builtin tools for charts, weather, travel and images.`,
	Run: func(cmd *cobra.Command, args []string) {
		runChatApp()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func runChatApp() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.NewApplication(cfg, logger.New(debugFlag))
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(profileCmd)
}
