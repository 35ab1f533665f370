package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
	"github.com/kbukum/llmflow/provider"
	"github.com/kbukum/llmflow/version"
)

// Sentinel errors.
var (
	ErrNoDialect    = errors.New("llm: dialect is required")
	ErrNoSSEReader  = errors.New("llm: expected SSE stream but got no SSE reader")
	ErrNoStreamBody = errors.New("llm: expected stream body but got nil")
	// ErrStreamInterrupted is delivered in-band when a stream ends before
	// the provider's end-of-stream marker.
	ErrStreamInterrupted = errors.New("llm: stream ended before completion")
)

// Adapter is a config-driven LLM client that works with any provider via
// the Dialect pattern.
//
// It composes the HTTP client (TLS, auth, timeouts, typed errors) with a
// Dialect that handles provider-specific request and response mapping.
//
// Adapter implements Client:
//   - provider.RequestResponse[CompletionRequest, CompletionResponse]
//   - provider.Streamable[CompletionRequest, CompletionResponse, StreamChunk]
//   - provider.Closeable
type Adapter struct {
	http      *httpclient.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
}

// New creates an LLM adapter from config using the global dialect registry.
// The config's Dialect field must match a registered dialect name.
func New(cfg Config) (*Adapter, error) {
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(dialect, cfg)
}

// NewWithDialect creates an LLM adapter with an explicit dialect instance.
// Use this when you don't want to rely on the global dialect registry.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	if cfg.Dialect == "" {
		cfg.Dialect = dialect.Name()
	}
	cfg.ApplyDefaults()
	if c, ok := dialect.(Configurer); ok {
		if err := c.Configure(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := httpclient.New(httpclient.Config{
		Name:      cfg.Name,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		Auth:      cfg.Auth,
		TLS:       cfg.TLS,
		Headers:   cfg.Headers,
		UserAgent: version.UserAgent(),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}

	return &Adapter{
		http:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// --- provider.Provider interface ---

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.http.Name() }

// IsAvailable checks if the LLM provider is reachable via the dialect's
// health endpoint. Dialects without one are assumed available.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := httpclient.GetJSON[json.RawMessage](ctx, a.http, hp)
	return err == nil
}

// --- provider.Closeable interface ---

// Close releases resources.
func (a *Adapter) Close(ctx context.Context) error { return a.http.Close(ctx) }

// --- provider.RequestResponse interface ---

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)
	req.Stream = false

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	raw, err := httpclient.PostJSON[json.RawMessage](ctx, a.http, a.dialect.ChatPath(), body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: execute: %w", err)
	}

	result, err := a.dialect.ParseResponse(raw)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	return *result, nil
}

// --- provider.Streamable interface ---

// Stream sends a completion request and returns a channel of streamed
// chunks. The channel is closed when the stream ends. A stream that stops
// before the provider's end marker ends with a chunk carrying
// ErrStreamInterrupted.
func (a *Adapter) Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	a.applyDefaults(&req)
	req.Stream = true

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return nil, fmt.Errorf("llm: build stream request: %w", err)
	}

	streamResp, err := a.http.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: stream: %w", err)
	}

	ch := make(chan StreamChunk)
	go a.readStream(ctx, streamResp, ch)
	return ch, nil
}

// --- Accessors ---

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Model returns the adapter's default model.
func (a *Adapter) Model() string { return a.model }

// HTTP returns the underlying HTTP client.
func (a *Adapter) HTTP() *httpclient.Client { return a.http }

// --- internal ---

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}

// Instrument wraps a client with logging, tracing, and metrics. A nil
// log or metrics skips that layer.
func Instrument(c Client, log *logger.Logger, metrics *observability.Metrics, serviceName string) Client {
	mws := []provider.Middleware[CompletionRequest, CompletionResponse, StreamChunk]{
		provider.WithTracing[CompletionRequest, CompletionResponse, StreamChunk](serviceName),
	}
	if metrics != nil {
		mws = append(mws, provider.WithMetrics[CompletionRequest, CompletionResponse, StreamChunk](metrics))
	}
	if log != nil {
		mws = append(mws, provider.WithLogging[CompletionRequest, CompletionResponse, StreamChunk](log))
	}
	return provider.Chain(mws...)(c)
}
