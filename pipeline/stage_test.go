package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/llm/llmtest"
	"github.com/kbukum/llmflow/structured"
)

func TestStreamAggregation(t *testing.T) {
	var seen []string
	client := llmtest.New(llmtest.Fragments("Hel", "lo, ", "world"))
	st := NewStreamStage(StageConfig{Name: "draft", Prompt: staticPrompt("write"), Client: client},
		func(stage, f string) { seen = append(seen, stage+"|"+f) })

	res, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Kind() != KindStreamed || res.Text() != "Hello, world" {
		t.Errorf("result = %v %q", res.Kind(), res.Text())
	}
	if diff := cmp.Diff([]string{"draft|Hel", "draft|lo, ", "draft|world"}, seen); diff != "" {
		t.Errorf("subscriber saw (-want +got):\n%s", diff)
	}
}

func TestStreamInterrupted(t *testing.T) {
	client := llmtest.New(llmtest.Interrupted(2, "Once ", "upon ", "a time"))
	st := NewStreamStage(StageConfig{Name: "story", Prompt: staticPrompt("tell"), Client: client})

	run := newRunner().Run(context.Background(), []Stage{st}, NewInput("", "", nil))
	if run.FailureCode() != errors.ErrCodeStreamInterrupted {
		t.Fatalf("code = %s", run.FailureCode())
	}
	if run.State.Len() != 0 {
		t.Error("partial text must not be recorded")
	}
	if got := run.Err.Details["partial_text"]; got != "Once upon " {
		t.Errorf("partial_text = %q", got)
	}
	if run.Err.Details["truncated"] != true {
		t.Error("expected truncated flag")
	}
	if !IsStreamInterrupted(run.Err) {
		t.Error("IsStreamInterrupted should match")
	}
}

// closingClient streams one fragment and closes without a done marker.
type closingClient struct{ *llmtest.Client }

func (c closingClient) Stream(ctx context.Context, _ llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{Content: "half"}
	close(ch)
	return ch, nil
}

func TestStreamClosedWithoutDone(t *testing.T) {
	st := NewStreamStage(StageConfig{Name: "s", Prompt: staticPrompt("x"), Client: closingClient{llmtest.New()}})
	_, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if !errors.Is(err, errors.ErrCodeStreamInterrupted) {
		t.Fatalf("expected STREAM_INTERRUPTED, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Details["partial_text"] != "half" {
		t.Errorf("partial = %v", appErr.Details["partial_text"])
	}
}

func TestStreamStartFailure(t *testing.T) {
	client := llmtest.New(llmtest.Fail(fmt.Errorf("401 unauthorized")))
	st := NewStreamStage(StageConfig{Name: "s", Prompt: staticPrompt("x"), Client: client})
	_, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if !errors.Is(err, errors.ErrCodeRemoteCall) {
		t.Fatalf("expected REMOTE_CALL_ERROR, got %v", err)
	}
}

func TestStructuredStageMissingField(t *testing.T) {
	responses := []string{
		`{"risk_level": "low"}`,
		"```json\n{\"complexity\": \"high\"}\n```",
		"```json\n{}\n```",
		"I could not analyze this diff.",
	}
	for _, raw := range responses {
		client := llmtest.New(llmtest.Text(raw))
		st := NewStructuredStage(StageConfig{Name: "analysis", Prompt: staticPrompt("x"), Client: client}, riskSchema)

		res, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
		if !errors.Is(err, errors.ErrCodeSchemaViolation) {
			t.Errorf("%q: expected SCHEMA_VIOLATION, got %v", raw, err)
			continue
		}
		if res.Record() != nil {
			t.Errorf("%q: no partial record may be returned, got %v", raw, res.Record())
		}
		appErr, _ := errors.AsAppError(err)
		if appErr.Stage != "analysis" || appErr.Details["raw_response"] != raw {
			t.Errorf("%q: error lacks stage or raw response: %+v", raw, appErr)
		}
	}
}

func TestStructuredStageSchema(t *testing.T) {
	st := NewStructuredStage(StageConfig{Name: "a"}, riskSchema)
	wrapped := WithLogging(WithTracing(st, "t"), nil)
	inner, ok := Unwrap(wrapped).(*StructuredStage)
	if !ok {
		t.Fatalf("Unwrap returned %T", Unwrap(wrapped))
	}
	if diff := cmp.Diff(riskSchema, inner.Schema()); diff != "" {
		t.Error(diff)
	}
}

func TestStageRemoteError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	client := llmtest.New(llmtest.Fail(cause))
	st := NewTextStage(StageConfig{Name: "bugs", Prompt: staticPrompt("x"), Client: client})
	_, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if !errors.Is(err, errors.ErrCodeRemoteCall) {
		t.Fatalf("expected REMOTE_CALL_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") || !strings.Contains(err.Error(), "bugs") {
		t.Errorf("error should carry cause and stage: %v", err)
	}
}

func TestStagePromptError(t *testing.T) {
	client := llmtest.New()
	st := NewTextStage(StageConfig{Name: "p", Client: client, Prompt: func(Input, Deps) (llm.CompletionRequest, error) {
		return llm.CompletionRequest{}, fmt.Errorf("bad template")
	}})
	_, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
	if client.Calls() != 0 {
		t.Error("no remote call should be made")
	}
}

func TestStageMisconfigured(t *testing.T) {
	tests := []Stage{
		NewTextStage(StageConfig{Name: "no-client", Prompt: staticPrompt("x")}),
		NewStreamStage(StageConfig{Name: "no-prompt", Client: llmtest.New()}),
	}
	for _, st := range tests {
		_, err := st.Execute(context.Background(), NewInput("", "", nil), Deps{})
		if !errors.Is(err, errors.ErrCodeConfiguration) {
			t.Errorf("%s: expected CONFIGURATION_ERROR, got %v", st.Name(), err)
		}
	}
}

func TestDependencyRecordsAreCopies(t *testing.T) {
	rec := structured.Record{"tags": []any{"a"}, "meta": map[string]any{"k": "v"}}
	var mutated bool
	producer := Func("producer", KindStructured, nil, func(context.Context, Input, Deps) (Result, error) {
		return StructuredResult(rec), nil
	})
	consumer := Func("consumer", KindText, []string{"producer"}, func(_ context.Context, _ Input, deps Deps) (Result, error) {
		r := deps.Record("producer")
		r["tags"].([]any)[0] = "changed"
		r["meta"].(map[string]any)["k"] = "changed"
		r["new"] = true
		mutated = true
		return TextResult("ok"), nil
	})

	run := newRunner().Run(context.Background(), []Stage{producer, consumer}, NewInput("", "", nil))
	if !run.Succeeded() || !mutated {
		t.Fatalf("run failed: %v", run.Err)
	}
	stored, _ := run.State.Get("producer")
	want := structured.Record{"tags": []any{"a"}, "meta": map[string]any{"k": "v"}}
	if diff := cmp.Diff(want, stored.Record()); diff != "" {
		t.Errorf("recorded output changed (-want +got):\n%s", diff)
	}

	rec["tags"].([]any)[0] = "source changed"
	if diff := cmp.Diff(want, stored.Record()); diff != "" {
		t.Errorf("result shares state with its source (-want +got):\n%s", diff)
	}
}
