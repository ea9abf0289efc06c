package tools

import (
	"os"

	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/resource"
)

// NewBuiltinRegistry assembles the builtin tool set, filtered by the
// config allow-list. Binary tools share the resource store.
func NewBuiltinRegistry(cfg *config.Config, store *resource.Store) *Registry {
	all := []Tool{
		&CurrentTimeTool{},
		NewWeatherHistoryTool(),
		NewPopularDestinationsTool(os.Getenv("FNCHAT_TRAVEL_API_TOKEN")),
		NewRenderChartTool(store),
		NewGenerateImageTool(cfg.BaseURL(), cfg.APIKey(), store),
		NewImageProcessingTool(cfg.BaseURL(), cfg.APIKey(), cfg.VisionModel()),
	}
	return NewRegistry(all, cfg.EnabledTools)
}
