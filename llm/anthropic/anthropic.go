// Package anthropic registers the "anthropic" dialect for the Messages API.
package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/llm"
)

const (
	// DialectName is the registered dialect name.
	DialectName = "anthropic"
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultModel is used when neither config nor request names a model.
	DefaultModel = "claude-sonnet-4-5-20250929"
	// APIVersion is sent in the anthropic-version header.
	APIVersion = "2023-06-01"
	// CredentialEnv names the environment variable holding the API key.
	CredentialEnv = "ANTHROPIC_API_KEY"

	defaultMaxTokens = 1024
)

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to the Anthropic Messages API.
type Dialect struct{}

func (d *Dialect) Name() string       { return DialectName }
func (d *Dialect) ChatPath() string   { return "/v1/messages" }
func (d *Dialect) HealthPath() string { return "/v1/models" }

func (d *Dialect) StreamFormat() llm.StreamFormat { return llm.StreamSSE }

// Configure fills the base URL, version header, and x-api-key auth. A
// missing key is a configuration error.
func (d *Dialect) Configure(cfg *llm.Config) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	if _, ok := cfg.Headers["anthropic-version"]; !ok {
		cfg.Headers["anthropic-version"] = APIVersion
	}
	if cfg.Auth != nil {
		return nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.MissingCredential(CredentialEnv)
	}
	cfg.Auth = httpclient.APIKeyAuth(cfg.APIKey, "x-api-key")
	return nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// BuildRequest maps a universal request to a Messages API body.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("anthropic: at least one message is required")
	}
	out := messagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.SystemPrompt,
		Stream:    req.Stream,
		Messages:  make([]message, 0, len(req.Messages)),
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = defaultMaxTokens
	}
	if req.Temperature > 0 {
		t := req.Temperature
		out.Temperature = &t
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ParseResponse joins the text blocks of a Messages API response.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return &llm.CompletionResponse{
		Content:    sb.String(),
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseStreamChunk handles one SSE data payload. Text arrives in
// content_block_delta events; message_stop ends the stream.
func (d *Dialect) ParseStreamChunk(data []byte) (string, bool, error) {
	var ev streamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", false, fmt.Errorf("anthropic: decode stream event: %w", err)
	}
	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == "text_delta" || ev.Delta.Type == "" {
			return ev.Delta.Text, false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		return "", false, fmt.Errorf("anthropic: stream error %s: %s", ev.Error.Type, ev.Error.Message)
	}
	return "", false, nil
}
