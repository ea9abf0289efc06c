package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/config"
)

const prompt = "Transcribe this document. Respond only with JSON of the form " +
	`{"pages": [{"fragments": [{"content": "..."}]}]}` +
	" where each fragment is one block of text in reading order."

// Client turns document images into plain text through a vision
// model. One request per document; pagination happens model-side.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL(),
		apiKey:     cfg.APIKey(),
		model:      cfg.VisionModel(),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

type transcription struct {
	Pages []struct {
		Fragments []struct {
			Content string `json:"content"`
		} `json:"fragments"`
	} `json:"pages"`
}

// TranscribeFile reads a local image or PDF and returns its text,
// pages separated by blank lines.
func (c *Client) TranscribeFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return c.Transcribe(ctx, dataURL)
}

// Transcribe sends the document as a data URL and parses the model's
// structured response.
func (c *Client) Transcribe(ctx context.Context, dataURL string) (string, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"max_tokens":  4096,
		"temperature": 0,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription request failed with status %d", resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("transcription response had no choices")
	}

	var doc transcription
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &doc); err != nil {
		return "", fmt.Errorf("parse transcription: %w", err)
	}

	return flatten(doc), nil
}

func flatten(doc transcription) string {
	pages := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		fragments := make([]string, 0, len(p.Fragments))
		for _, f := range p.Fragments {
			fragments = append(fragments, f.Content)
		}
		pages = append(pages, strings.Join(fragments, "\n"))
	}
	return strings.Join(pages, "\n\n")
}
