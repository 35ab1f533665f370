package llm

import "github.com/kbukum/llmflow/provider"

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"` // "user" or "assistant"
	Content string `json:"content" yaml:"content"`
}

// Role values.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest is the universal input for all LLM dialects.
type CompletionRequest struct {
	// Model overrides the adapter's default model.
	Model string `json:"model,omitempty" yaml:"model"`
	// Messages is the conversation. Stages send a single user message.
	Messages []Message `json:"messages" yaml:"messages"`
	// SystemPrompt is sent as the dialect's system instruction.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	// Temperature controls randomness. 0 means the adapter default.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature"`
	// MaxTokens limits the response length. 0 means the adapter default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
	// Stream requests streaming mode. Set by Adapter.Stream.
	Stream bool `json:"stream,omitempty" yaml:"stream"`
	// Extra holds dialect-specific fields, such as Ollama's "format".
	Extra map[string]any `json:"extra,omitempty" yaml:"extra"`
}

// UserPrompt builds a single-message request.
func UserPrompt(prompt string, maxTokens int) CompletionRequest {
	return CompletionRequest{
		Messages:  []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	}
}

// Prompt returns the concatenated content of the user messages.
func (r CompletionRequest) Prompt() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != RoleUser {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// CompletionResponse is the universal output from all LLM dialects.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`
	// Model is the model that produced the response.
	Model string `json:"model"`
	// StopReason is the dialect's reason for ending generation, if reported.
	StopReason string `json:"stop_reason,omitempty"`
	Usage      Usage  `json:"usage"`
}

// StreamChunk is a single piece of a streamed response. Exactly one chunk
// with Done set ends a successful stream; a chunk with Err set ends a
// failed one.
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Err     error  `json:"-"`
}

// ChunkErr implements provider.Chunk.
func (c StreamChunk) ChunkErr() error { return c.Err }

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client is what stages call: one request answered whole or streamed.
// Adapter implements it, as does any middleware-wrapped Adapter.
type Client = provider.Streamable[CompletionRequest, CompletionResponse, StreamChunk]
