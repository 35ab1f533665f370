package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/llmflow/llm"
)

func TestConfigureDefaults(t *testing.T) {
	cfg := llm.Config{}
	if err := (&Dialect{}).Configure(&cfg); err != nil {
		t.Fatalf("Configure() error: %v", err)
	}
	if cfg.BaseURL != defaultBaseURL || cfg.Model != defaultModel {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestBuildRequest(t *testing.T) {
	body, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{
		Model:        "qwen",
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		MaxTokens:    50,
		Extra:        map[string]any{"format": "json"},
	})
	if err != nil {
		t.Fatalf("BuildRequest() error: %v", err)
	}
	data, _ := json.Marshal(body)
	var got map[string]any
	_ = json.Unmarshal(data, &got)
	want := map[string]any{
		"model":  "qwen",
		"stream": false,
		"format": "json",
		"messages": []any{
			map[string]any{"role": "system", "content": "sys"},
			map[string]any{"role": "user", "content": "hi"},
		},
		"options": map[string]any{"num_predict": float64(50)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStreamChunk(t *testing.T) {
	content, done, err := (&Dialect{}).ParseStreamChunk([]byte(`{"message":{"role":"assistant","content":"x"},"done":false}`))
	if err != nil || content != "x" || done {
		t.Errorf("got (%q, %v, %v)", content, done, err)
	}
	_, done, _ = (&Dialect{}).ParseStreamChunk([]byte(`{"message":{"content":""},"done":true}`))
	if !done {
		t.Error("expected done")
	}
	if _, _, err := (&Dialect{}).ParseStreamChunk([]byte(`{"error":"model not found"}`)); err == nil {
		t.Error("expected error line to fail")
	}
}

func TestAdapterStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, word := range []string{"a", "b", "c"} {
			fmt.Fprintf(w, `{"message":{"content":%q},"done":false}`+"\n", word)
		}
		fmt.Fprintln(w, `{"message":{"content":""},"done":true,"eval_count":3}`)
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: DialectName, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer a.Close(context.Background())

	ch, err := a.Stream(context.Background(), llm.UserPrompt("hi", 0))
	if err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	var sb strings.Builder
	for c := range ch {
		if c.Err != nil {
			t.Fatalf("stream error: %v", c.Err)
		}
		sb.WriteString(c.Content)
	}
	if sb.String() != "abc" {
		t.Errorf("stream = %q", sb.String())
	}
}
