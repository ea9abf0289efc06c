package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/resource"
	"github.com/calyptra/fnchat/internal/tools"
)

var toolsJSONFlag bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the builtin tools exposed to the model",
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

		if toolsJSONFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(registry.Specs()); err != nil {
				log.Fatalf("Failed to encode tool specs: %v", err)
			}
			return
		}

		for _, spec := range registry.Specs() {
			fmt.Printf("%s\n    %s\n", spec.Function.Name, spec.Function.Description)
		}
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSONFlag, "json", false, "print the full specifications as JSON")
	rootCmd.AddCommand(toolsCmd)
}
