package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// --- mock dialect for testing ---

type mockDialect struct {
	name         string
	chatPath     string
	healthPath   string
	streamFormat StreamFormat
	buildErr     error
	parseErr     error
}

func (d *mockDialect) Name() string {
	if d.name != "" {
		return d.name
	}
	return "mock"
}

func (d *mockDialect) ChatPath() string {
	if d.chatPath != "" {
		return d.chatPath
	}
	return "/chat"
}

func (d *mockDialect) HealthPath() string { return d.healthPath }

func (d *mockDialect) BuildRequest(req CompletionRequest) (any, error) {
	if d.buildErr != nil {
		return nil, d.buildErr
	}
	return map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
		"stream":   req.Stream,
	}, nil
}

func (d *mockDialect) ParseResponse(body []byte) (*CompletionResponse, error) {
	if d.parseErr != nil {
		return nil, d.parseErr
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	content, _ := raw["content"].(string)
	model, _ := raw["model"].(string)
	return &CompletionResponse{
		Content: content,
		Model:   model,
		Usage:   Usage{TotalTokens: 10},
	}, nil
}

func (d *mockDialect) StreamFormat() StreamFormat { return d.streamFormat }

func (d *mockDialect) ParseStreamChunk(data []byte) (content string, done bool, err error) {
	var chunk struct {
		Content string `json:"content"`
		Done    bool   `json:"done"`
	}
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, err
	}
	return chunk.Content, chunk.Done, nil
}

// configuringDialect requires a key and installs bearer auth.
type configuringDialect struct{ mockDialect }

func (d *configuringDialect) Configure(cfg *Config) error {
	if cfg.APIKey == "" {
		return errors.MissingCredential("MOCK_API_KEY")
	}
	cfg.Auth = httpclient.BearerAuth(cfg.APIKey)
	return nil
}

func newTestAdapter(t *testing.T, d Dialect, baseURL string) *Adapter {
	t.Helper()
	a, err := NewWithDialect(d, Config{BaseURL: baseURL, Model: "test-model"})
	if err != nil {
		t.Fatalf("NewWithDialect() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func collect(t *testing.T, ch <-chan StreamChunk) (string, error) {
	t.Helper()
	var sb strings.Builder
	for c := range ch {
		if c.Err != nil {
			return sb.String(), c.Err
		}
		sb.WriteString(c.Content)
	}
	return sb.String(), nil
}

func TestAdapter_New_WithDialect(t *testing.T) {
	withDialects(t)
	RegisterDialect("mock", &mockDialect{})

	a, err := New(Config{
		Dialect: "mock",
		BaseURL: "http://localhost:12345",
		Model:   "test-model",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.Name() != "mock-llm" {
		t.Errorf("Name() = %q, want %q", a.Name(), "mock-llm")
	}
	if a.Dialect().Name() != "mock" {
		t.Errorf("Dialect().Name() = %q, want %q", a.Dialect().Name(), "mock")
	}
	if a.Model() != "test-model" {
		t.Errorf("Model() = %q", a.Model())
	}
}

func TestAdapter_New_UnknownDialect(t *testing.T) {
	_, err := New(Config{Dialect: "nonexistent-xyz"})
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAdapter_NewWithDialect(t *testing.T) {
	a := newTestAdapter(t, &mockDialect{name: "direct"}, "http://localhost:12345")
	if a.Name() != "direct-llm" {
		t.Errorf("Name() = %q, want %q", a.Name(), "direct-llm")
	}
}

func TestAdapter_NewWithDialect_NilDialect(t *testing.T) {
	_, err := NewWithDialect(nil, Config{})
	if err != ErrNoDialect {
		t.Errorf("expected ErrNoDialect, got %v", err)
	}
}

func TestAdapter_NewWithDialect_InvalidConfig(t *testing.T) {
	_, err := NewWithDialect(&mockDialect{}, Config{BaseURL: "not a url"})
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAdapter_Configurer(t *testing.T) {
	t.Run("missing credential", func(t *testing.T) {
		_, err := NewWithDialect(&configuringDialect{}, Config{BaseURL: "http://localhost:1"})
		if !errors.Is(err, errors.ErrCodeConfiguration) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if !strings.Contains(err.Error(), "MOCK_API_KEY") {
			t.Errorf("error should name the variable: %v", err)
		}
	})

	t.Run("auth applied", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret" {
				t.Errorf("Authorization = %q", got)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"content": "ok"})
		}))
		defer srv.Close()

		a, err := NewWithDialect(&configuringDialect{}, Config{BaseURL: srv.URL, APIKey: "secret"})
		if err != nil {
			t.Fatalf("NewWithDialect() error: %v", err)
		}
		defer a.Close(context.Background())
		if _, err := a.Execute(context.Background(), UserPrompt("hi", 0)); err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
	})
}

func TestAdapter_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "test-model" {
			t.Errorf("model = %v, want test-model", body["model"])
		}
		if body["stream"] != false {
			t.Errorf("stream = %v, want false", body["stream"])
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": "Hello from LLM!",
			"model":   "test-model",
		})
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{}, srv.URL)
	resp, err := a.Execute(context.Background(), UserPrompt("Hi", 0))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if resp.Content != "Hello from LLM!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello from LLM!")
	}
	if resp.Model != "test-model" {
		t.Errorf("Model = %q, want %q", resp.Model, "test-model")
	}
}

func TestAdapter_Execute_AppliesDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["model"] != "default-model" {
			t.Errorf("model = %v, want default-model", body["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "ok"})
	}))
	defer srv.Close()

	a, err := NewWithDialect(&mockDialect{}, Config{
		BaseURL:     srv.URL,
		Model:       "default-model",
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	defer a.Close(context.Background())

	resp, err := a.Execute(context.Background(), UserPrompt("test", 0))
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if resp.Model != "default-model" {
		t.Errorf("Model should fall back to the request model, got %q", resp.Model)
	}
}

func TestAdapter_Execute_BuildError(t *testing.T) {
	a := newTestAdapter(t, &mockDialect{buildErr: fmt.Errorf("build failed")}, "http://localhost:1")
	_, err := a.Execute(context.Background(), CompletionRequest{})
	if err == nil || !strings.Contains(err.Error(), "build request") {
		t.Errorf("expected build request error, got %v", err)
	}
}

func TestAdapter_Execute_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down"}}`)
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{}, srv.URL)
	_, err := a.Execute(context.Background(), UserPrompt("x", 0))
	if !httpclient.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Errorf("expected provider message in error, got %v", err)
	}
}

func TestAdapter_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tests := []struct {
		name       string
		healthPath string
		want       bool
	}{
		{"healthy", "/health", true},
		{"missing endpoint", "/nope", false},
		{"no health path", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAdapter(t, &mockDialect{healthPath: tc.healthPath}, srv.URL)
			if got := a.IsAvailable(context.Background()); got != tc.want {
				t.Errorf("IsAvailable() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdapter_Stream_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{
			`{"content":"Hello","done":false}`,
			`{"content":" world","done":false}`,
			`{"content":"","done":true}`,
		} {
			fmt.Fprintln(w, chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{streamFormat: StreamNDJSON}, srv.URL)
	ch, err := a.Stream(context.Background(), UserPrompt("Hi", 0))
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	got, err := collect(t, ch)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("streamed content = %q, want %q", got, "Hello world")
	}
}

func TestAdapter_Stream_SSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, event := range []string{
			"data: {\"content\":\"Hello\",\"done\":false}\n\n",
			": keep-alive\n\n",
			"data: {\"content\":\" there\",\"done\":false}\n\n",
			"data: {\"content\":\"\",\"done\":true}\n\n",
		} {
			_, _ = io.WriteString(w, event)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{streamFormat: StreamSSE}, srv.URL)
	ch, err := a.Stream(context.Background(), UserPrompt("Hi", 0))
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	got, err := collect(t, ch)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got != "Hello there" {
		t.Errorf("streamed content = %q, want %q", got, "Hello there")
	}
}

func TestAdapter_Stream_Interrupted(t *testing.T) {
	for _, format := range []StreamFormat{StreamNDJSON, StreamSSE} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if format == StreamSSE {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, "data: {\"content\":\"partial\"}\n\n")
				return
			}
			fmt.Fprintln(w, `{"content":"partial"}`)
		}))

		a := newTestAdapter(t, &mockDialect{streamFormat: format}, srv.URL)
		ch, err := a.Stream(context.Background(), UserPrompt("Hi", 0))
		if err != nil {
			t.Fatalf("Stream() error: %v", err)
		}
		got, err := collect(t, ch)
		if !stderrors.Is(err, ErrStreamInterrupted) {
			t.Errorf("format %d: expected ErrStreamInterrupted, got %v", format, err)
		}
		if got != "partial" {
			t.Errorf("format %d: partial = %q", format, got)
		}
		srv.Close()
	}
}

func TestAdapter_Stream_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"content":"a"}`)
		fmt.Fprintln(w, `not json`)
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{streamFormat: StreamNDJSON}, srv.URL)
	ch, err := a.Stream(context.Background(), UserPrompt("Hi", 0))
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if _, err := collect(t, ch); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAdapter_Stream_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{streamFormat: StreamSSE}, srv.URL)
	_, err := a.Stream(context.Background(), UserPrompt("Hi", 0))
	if !httpclient.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestAdapter_Stream_Cancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"content":"first"}`)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	a := newTestAdapter(t, &mockDialect{streamFormat: StreamNDJSON}, srv.URL)
	ch, err := a.Stream(ctx, UserPrompt("Hi", 0))
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	first := <-ch
	if first.Content != "first" {
		t.Fatalf("first chunk = %+v", first)
	}
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}

func TestInstrument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "ok"})
	}))
	defer srv.Close()

	a := newTestAdapter(t, &mockDialect{}, srv.URL)
	c := Instrument(a, logger.NewNop(), nil, "llmflow")
	if c.Name() != a.Name() {
		t.Errorf("Name() = %q, want %q", c.Name(), a.Name())
	}
	resp, err := c.Execute(context.Background(), UserPrompt("x", 0))
	if err != nil || resp.Content != "ok" {
		t.Fatalf("Execute() = %+v, %v", resp, err)
	}
}

func TestCompletionRequest_Prompt(t *testing.T) {
	req := CompletionRequest{Messages: []Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "skip"},
		{Role: RoleUser, Content: "b"},
	}}
	if got := req.Prompt(); got != "a\n\nb" {
		t.Errorf("Prompt() = %q", got)
	}
}
