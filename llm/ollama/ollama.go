// Package ollama registers the "ollama" dialect for a local Ollama server.
package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/llmflow/llm"
)

const (
	// DialectName is the registered dialect name.
	DialectName = "ollama"

	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
)

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to Ollama's /api/chat endpoint.
type Dialect struct{}

func (d *Dialect) Name() string                   { return DialectName }
func (d *Dialect) ChatPath() string               { return "/api/chat" }
func (d *Dialect) HealthPath() string             { return "/api/tags" }
func (d *Dialect) StreamFormat() llm.StreamFormat { return llm.StreamNDJSON }

// Configure fills the local server defaults. Ollama needs no credential.
func (d *Dialect) Configure(cfg *llm.Config) error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   any            `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// BuildRequest maps a universal request to an Ollama chat body. The
// system prompt becomes a leading system message. Extra["format"] is
// passed through for JSON mode.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	out := chatRequest{
		Model:  req.Model,
		Stream: req.Stream,
	}
	if out.Model == "" {
		out.Model = defaultModel
	}
	if req.SystemPrompt != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	opts := map[string]any{}
	if req.Temperature > 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) > 0 {
		out.Options = opts
	}
	if f, ok := req.Extra["format"]; ok {
		out.Format = f
	}
	return out, nil
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	// DoneReason is reported by newer servers.
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// ParseResponse maps a non-streaming chat response.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}
	return &llm.CompletionResponse{
		Content:    resp.Message.Content,
		Model:      resp.Model,
		StopReason: resp.DoneReason,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

// ParseStreamChunk handles one NDJSON line.
func (d *Dialect) ParseStreamChunk(data []byte) (string, bool, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", false, fmt.Errorf("ollama: decode stream line: %w", err)
	}
	if resp.Error != "" {
		return "", false, fmt.Errorf("ollama: %s", resp.Error)
	}
	return resp.Message.Content, resp.Done, nil
}
