package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ImageProcessingTool answers a question about an image by sending it
// to a vision-capable chat model.
type ImageProcessingTool struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

func NewImageProcessingTool(baseURL, apiKey, model string) *ImageProcessingTool {
	return &ImageProcessingTool{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (t *ImageProcessingTool) Name() string {
	return "image_processing"
}

func (t *ImageProcessingTool) Description() string {
	return "Analyzes an image and returns a description of its content to answer user questions."
}

func (t *ImageProcessingTool) Parameters() map[string]any {
	return map[string]any{
		"url": map[string]any{
			"type":        "string",
			"description": "URL of the image to process",
		},
		"question": map[string]any{
			"type":        "string",
			"description": "Question about the image content",
		},
	}
}

func (t *ImageProcessingTool) Required() []string {
	return []string{"url", "question"}
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (t *ImageProcessingTool) Call(ctx context.Context, args map[string]any) (string, error) {
	imageURL, _ := args["url"].(string)
	question, _ := args["question"].(string)

	payload, err := json.Marshal(map[string]any{
		"model":      t.Model,
		"max_tokens": 512,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": question},
				{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
			},
		}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision service returned %s", resp.Status)
	}

	var parsed visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to parse vision response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision service returned no choices")
	}

	out, err := json.Marshal(map[string]string{"answer": parsed.Choices[0].Message.Content})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
