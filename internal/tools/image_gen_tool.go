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

// GenerateImageTool produces an image from a text description via the
// inference provider's image-generation endpoint and returns a
// resource locator for it.
type GenerateImageTool struct {
	BaseURL    string
	APIKey     string
	Model      string
	Store      *resource.Store
	HTTPClient *http.Client
}

func NewGenerateImageTool(baseURL, apiKey string, store *resource.Store) *GenerateImageTool {
	return &GenerateImageTool{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      "stable-diffusion-xl-1024-v1-0",
		Store:      store,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (g *GenerateImageTool) Name() string {
	return "generate_image"
}

func (g *GenerateImageTool) Description() string {
	return "Generates an image from a text description. The tool output should be displayed as ![text](image_url)."
}

func (g *GenerateImageTool) Parameters() map[string]any {
	return map[string]any{
		"prompt": map[string]any{
			"type":        "string",
			"description": "description of the image",
		},
		"negative_prompt": map[string]any{
			"type":        "string",
			"description": "concepts that should be excluded from the generated image",
		},
	}
}

func (g *GenerateImageTool) Required() []string {
	return []string{"prompt"}
}

func (g *GenerateImageTool) Call(ctx context.Context, args map[string]any) (string, error) {
	body := map[string]any{"prompt": args["prompt"]}
	if neg, ok := args["negative_prompt"].(string); ok && neg != "" {
		body["negative_prompt"] = neg
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/image_generation/%s", g.BaseURL, g.Model), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image service returned %s", resp.Status)
	}

	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	locator, err := g.Store.Put(image, "image/png")
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(map[string]string{"image_url": locator})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
