package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/logger"
	"github.com/calyptra/fnchat/internal/resource"
	"github.com/calyptra/fnchat/internal/server"
	"github.com/calyptra/fnchat/internal/tools"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tool discovery and stored resources over HTTP",
	Long:  `Serve the tool specifications and redeem resource locators produced by tools, so generated charts and images can be opened in a browser.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		store, err := resource.NewStore(cfg.ResourceDir)
		if err != nil {
			log.Fatalf("Failed to create resource store: %v", err)
		}

		registry := tools.NewBuiltinRegistry(cfg, store)
		srv := server.New(registry, store, logger.New(debugFlag))

		if err := srv.Listen(serveAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8600", "listen address")
	rootCmd.AddCommand(serveCmd)
}
