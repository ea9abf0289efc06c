package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calyptra/fnchat/internal/resource"
)

// RenderChartTool generates a chart image from Chart.js-style numeric
// data via a QuickChart-compatible rendering endpoint. The PNG is
// stored in the resource store and referenced by locator, so the tool
// result stays a plain string payload like every other tool.
type RenderChartTool struct {
	BaseURL    string
	Store      *resource.Store
	HTTPClient *http.Client
}

func NewRenderChartTool(store *resource.Store) *RenderChartTool {
	return &RenderChartTool{
		BaseURL:    "https://quickchart.io",
		Store:      store,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RenderChartTool) Name() string {
	return "render_chart"
}

func (r *RenderChartTool) Description() string {
	return "Generates a chart from numeric data. The chart is rendered by Chart.js, a popular open-source charting library. The tool output should be displayed as ![text](image_url)."
}

func (r *RenderChartTool) Parameters() map[string]any {
	return map[string]any{
		"type": map[string]any{
			"type":        "string",
			"description": "Type of the chart (e.g., bar, line, pie, doughnut, radar). Use bar chart if we only have a few data points.",
			"enum":        []string{"bar", "line", "pie", "doughnut", "radar"},
		},
		"data": map[string]any{
			"type":        "object",
			"description": "Chart data and labels",
			"properties": map[string]any{
				"labels": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"datasets": map[string]any{
					"type":        "array",
					"description": "data points for the dataset",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"label": map[string]any{"type": "string"},
							"data": map[string]any{
								"type":  "array",
								"items": map[string]any{"type": "number"},
							},
						},
						"required": []string{"data"},
					},
				},
			},
			"required": []string{"labels", "datasets"},
		},
	}
}

func (r *RenderChartTool) Required() []string {
	return []string{"type", "data"}
}

func (r *RenderChartTool) Call(ctx context.Context, args map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"chart":  map[string]any{"type": args["type"], "data": args["data"]},
		"format": "png",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/chart", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chart render failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chart service returned %s", resp.Status)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	locator, err := r.Store.Put(image, "image/png")
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]string{"image_url": locator})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
