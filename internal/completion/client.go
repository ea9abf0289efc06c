// Package completion translates a conversation into a single
// round trip against an OpenAI-compatible chat-completion endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/chat"
	"github.com/calyptra/fnchat/internal/config"
)

// Request status classifiers surfaced to the UI. Any other non-empty
// Status value is the server-supplied error string.
const (
	StatusOverQuota = "over_quota"
	StatusUnknown   = "unknown_error"
)

const defaultBaseURL = "https://api.fireworks.ai/inference/v1"

// Result is the outcome of one completion round trip. It is always a
// value; the client never returns a Go error across this boundary so
// the orchestrator can branch on the classifier.
type Result struct {
	Message chat.Message
	// Status is empty on success.
	Status string
}

// Failed reports whether the round trip produced an error result.
func (r Result) Failed() bool { return r.Status != "" }

// Client issues non-streaming chat-completion requests. Retry and
// looping belong to the orchestrator, not here.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger

	// now is a seam for tests; the system prompt embeds the time.
	now func() time.Time
}

// NewClient builds a Client from the active profile.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL()
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey(),
		model:   cfg.Model(),
		httpClient: &http.Client{
			// Tool-heavy completions can be slow.
			Timeout: 2 * time.Minute,
		},
		logger: logger,
		now:    time.Now,
	}
}

type wireMessage struct {
	Role       string            `json:"role"`
	Content    any               `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []openai.ToolCall `json:"tool_calls,omitempty"`
}

type completionRequest struct {
	Model                         string        `json:"model"`
	Messages                      []wireMessage `json:"messages"`
	Tools                         []openai.Tool `json:"tools,omitempty"`
	Stream                        bool          `json:"stream"`
	N                             int           `json:"n"`
	Temperature                   float64       `json:"temperature"`
	MaxTokens                     int           `json:"max_tokens"`
	TopP                          float64       `json:"top_p"`
	TopK                          int           `json:"top_k,omitempty"`
	PresencePenalty               float64       `json:"presence_penalty"`
	FrequencyPenalty              float64       `json:"frequency_penalty"`
	Stop                          []string      `json:"stop,omitempty"`
	ContextLengthExceededBehavior string        `json:"context_length_exceeded_behavior,omitempty"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role      string            `json:"role"`
			Content   string            `json:"content"`
			ToolCalls []openai.ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  any    `json:"error"`
}

// Complete sends the conversation plus tool specifications and parses
// the response into an assistant message. Placeholder messages must be
// filtered out by the caller; hidden messages stay in, they remain
// model context.
func (c *Client) Complete(ctx context.Context, gen config.Generation, history []chat.Message, tools []openai.Tool) Result {
	messages := make([]wireMessage, 0, len(history)+1)
	messages = append(messages, wireMessage{
		Role:    string(chat.RoleSystem),
		Content: c.systemPrompt(),
	})
	for _, m := range history {
		messages = append(messages, toWire(m))
	}

	reqBody := completionRequest{
		Model:                         c.model,
		Messages:                      messages,
		Tools:                         tools,
		Stream:                        false,
		N:                             1,
		Temperature:                   gen.Temperature,
		MaxTokens:                     gen.MaxTokens,
		TopP:                          gen.TopP,
		TopK:                          gen.TopK,
		PresencePenalty:               gen.PresencePenalty,
		FrequencyPenalty:              gen.FrequencyPenalty,
		Stop:                          gen.Stop,
		ContextLengthExceededBehavior: gen.ContextOverflow,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		c.logger.Error("failed to encode completion request", zap.Error(err))
		return Result{Status: StatusUnknown}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{Status: StatusUnknown}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err))
		return Result{Status: StatusUnknown}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{Status: StatusOverQuota}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Status: serverStatus(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return Result{Status: StatusUnknown}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		c.logger.Warn("unparseable completion response", zap.Error(err))
		return Result{Status: StatusUnknown}
	}

	choice := parsed.Choices[0]
	msg := chat.Message{
		ID:        parsed.ID,
		Role:      chat.RoleAssistant,
		Content:   choice.Message.Content,
		ToolCalls: choice.Message.ToolCalls,
		Metadata:  chat.Metadata{TotalTokens: parsed.Usage.TotalTokens},
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if choice.Message.Role != "" {
		msg.Role = chat.Role(choice.Message.Role)
	}

	c.logger.Debug("completion round trip",
		zap.Int("history", len(history)),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.Int("total_tokens", parsed.Usage.TotalTokens),
	)
	return Result{Message: msg}
}

func (c *Client) systemPrompt() string {
	return fmt.Sprintf("You are a helpful assistant with access to functions. "+
		"Use them if needed. If a function is not available, do not make one up. "+
		"The date and time is %s.", c.now().Format(time.RFC1123))
}

// serverStatus extracts the server-supplied error string from a
// non-2xx response, falling back to the HTTP status text.
func serverStatus(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return StatusUnknown
	}

	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Status != "" {
			return parsed.Status
		}
		switch e := parsed.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if resp.Status != "" {
		return resp.Status
	}
	return StatusUnknown
}

func toWire(m chat.Message) wireMessage {
	w := wireMessage{
		Role:       string(m.Role),
		ToolCallID: m.ToolCallID,
		ToolCalls:  m.ToolCalls,
	}
	if len(m.Parts) > 0 {
		w.Content = m.Parts
	} else {
		w.Content = m.Content
	}
	return w
}
