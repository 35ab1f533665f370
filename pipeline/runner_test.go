package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/llm/llmtest"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/structured"
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.NewNop())
	goleak.VerifyTestMain(m)
}

// countingStage records how often it ran and what dependencies it saw.
type countingStage struct {
	name  string
	deps  []string
	mu    sync.Mutex
	calls int
	seen  []string
}

func (s *countingStage) Name() string        { return s.name }
func (s *countingStage) DependsOn() []string { return s.deps }
func (s *countingStage) Kind() Kind          { return KindText }
func (s *countingStage) Execute(_ context.Context, _ Input, deps Deps) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = deps.Names()
	return TextResult("out:" + s.name), nil
}

func stagesFor(order [][2]string) []*countingStage {
	out := make([]*countingStage, len(order))
	for i, s := range order {
		var deps []string
		if s[1] != "" {
			deps = strings.Split(s[1], ",")
		}
		out[i] = &countingStage{name: s[0], deps: deps}
	}
	return out
}

func asStages(cs []*countingStage) []Stage {
	out := make([]Stage, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

func newRunner() *Runner { return NewRunner(WithLogger(logger.NewNop())) }

func TestRunValidOrderings(t *testing.T) {
	tests := []struct {
		name  string
		order [][2]string
	}{
		{"empty", nil},
		{"single", [][2]string{{"a", ""}}},
		{"chain", [][2]string{{"a", ""}, {"b", "a"}, {"c", "b"}}},
		{"fan in", [][2]string{{"a", ""}, {"b", ""}, {"c", "a,b"}}},
		{"diamond", [][2]string{{"a", ""}, {"b", "a"}, {"c", "a"}, {"d", "b,c"}}},
		{"independent", [][2]string{{"x", ""}, {"y", ""}, {"z", ""}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs := stagesFor(tc.order)
			run := newRunner().Run(context.Background(), asStages(cs), NewInput("in", "test", nil))

			if !run.Succeeded() || run.Error() != nil {
				t.Fatalf("expected success, got %s: %v", run, run.Error())
			}
			if run.State.Len() != len(cs) {
				t.Fatalf("expected %d state entries, got %d", len(cs), run.State.Len())
			}
			for i, c := range cs {
				if c.calls != 1 {
					t.Errorf("stage %q ran %d times", c.name, c.calls)
				}
				if got := run.State.Names()[i]; got != c.name {
					t.Errorf("state order[%d] = %q, want %q", i, got, c.name)
				}
				if diff := cmp.Diff(c.deps, c.seen, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("stage %q saw deps (-want +got):\n%s", c.name, diff)
				}
			}
			if len(run.Timings) != len(cs) {
				t.Errorf("expected %d timings, got %d", len(cs), len(run.Timings))
			}
			if run.ID == "" {
				t.Error("run ID should be set")
			}
		})
	}
}

func TestRunMalformedOrderings(t *testing.T) {
	tests := []struct {
		name     string
		order    [][2]string
		wantCode errors.ErrorCode
		stage    string
	}{
		{"dependency later", [][2]string{{"a", "b"}, {"b", ""}}, errors.ErrCodeMissingDependency, "a"},
		{"dependency missing", [][2]string{{"a", ""}, {"b", "ghost"}}, errors.ErrCodeMissingDependency, "b"},
		{"self dependency", [][2]string{{"a", "a"}}, errors.ErrCodeMissingDependency, "a"},
		{"duplicate names", [][2]string{{"a", ""}, {"a", ""}}, errors.ErrCodeConfiguration, "a"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs := stagesFor(tc.order)
			run := newRunner().Run(context.Background(), asStages(cs), NewInput("in", "test", nil))

			if run.Succeeded() {
				t.Fatal("expected failure")
			}
			if run.FailureCode() != tc.wantCode {
				t.Errorf("code = %s, want %s", run.FailureCode(), tc.wantCode)
			}
			if run.FailedStage != tc.stage {
				t.Errorf("failed stage = %q, want %q", run.FailedStage, tc.stage)
			}
			for _, c := range cs {
				if c.calls != 0 {
					t.Errorf("stage %q executed despite invalid order", c.name)
				}
			}
			if run.State.Len() != 0 {
				t.Errorf("state should be empty, got %v", run.State.Names())
			}
		})
	}
}

func TestValidateOrderNilAndUnnamed(t *testing.T) {
	if err := ValidateOrder([]Stage{nil}); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("nil stage: %v", err)
	}
	unnamed := Func("", KindText, nil, nil)
	if err := ValidateOrder([]Stage{unnamed}); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("unnamed stage: %v", err)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var ran []string
	mk := func(name string, fail bool, deps ...string) Stage {
		return Func(name, KindText, deps, func(context.Context, Input, Deps) (Result, error) {
			ran = append(ran, name)
			if fail {
				return Result{}, errors.RemoteCall(name, fmt.Errorf("service unavailable"))
			}
			return TextResult(name), nil
		})
	}
	stages := []Stage{mk("one", false), mk("two", true, "one"), mk("three", false, "two")}

	run := newRunner().Run(context.Background(), stages, NewInput("", "", nil))
	if run.Status != StatusFailed || run.FailedStage != "two" {
		t.Fatalf("unexpected run: %s", run)
	}
	if run.FailureCode() != errors.ErrCodeRemoteCall {
		t.Errorf("code = %s", run.FailureCode())
	}
	if diff := cmp.Diff([]string{"one", "two"}, ran); diff != "" {
		t.Errorf("executed stages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"one"}, run.State.Names()); diff != "" {
		t.Errorf("earlier results should stay recorded (-want +got):\n%s", diff)
	}
}

func TestRunWrapsPlainErrors(t *testing.T) {
	st := Func("boom", KindText, nil, func(context.Context, Input, Deps) (Result, error) {
		return Result{}, fmt.Errorf("plain failure")
	})
	run := newRunner().Run(context.Background(), []Stage{st}, NewInput("", "", nil))
	if run.FailureCode() != errors.ErrCodeInternal || run.Err.Stage != "boom" {
		t.Errorf("unexpected error: %v", run.Err)
	}
}

func TestRunKindMismatch(t *testing.T) {
	st := Func("liar", KindStructured, nil, func(context.Context, Input, Deps) (Result, error) {
		return TextResult("not a record"), nil
	})
	run := newRunner().Run(context.Background(), []Stage{st}, NewInput("", "", nil))
	if run.Succeeded() || run.State.Len() != 0 {
		t.Fatalf("kind mismatch must fail without recording: %s", run)
	}
}

func TestRunCancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := Func("first", KindText, nil, func(context.Context, Input, Deps) (Result, error) {
		cancel()
		return TextResult("ok"), nil
	})
	second := Func("second", KindText, nil, func(context.Context, Input, Deps) (Result, error) {
		t.Error("second stage must not run after cancel")
		return TextResult("no"), nil
	})
	run := newRunner().Run(ctx, []Stage{first, second}, NewInput("", "", nil))
	if run.Succeeded() || run.FailedStage != "second" {
		t.Fatalf("unexpected run: %s", run)
	}
	if run.State.Len() != 1 {
		t.Errorf("first result should be recorded")
	}
}

func TestRunnerIsStateless(t *testing.T) {
	r := newRunner()
	stages := asStages(stagesFor([][2]string{{"a", ""}, {"b", "a"}}))
	first := r.Run(context.Background(), stages, NewInput("1", "", nil))
	second := r.Run(context.Background(), stages, NewInput("2", "", nil))
	if !first.Succeeded() || !second.Succeeded() {
		t.Fatal("both runs should succeed")
	}
	if first.ID == second.ID || first.State == second.State {
		t.Error("runs must not share identity or state")
	}
}

// recordingObserver captures events as strings.
type recordingObserver struct {
	NopObserver
	events []string
}

func (o *recordingObserver) RunStarted(*Run) { o.events = append(o.events, "run:start") }
func (o *recordingObserver) StageStarted(_ *Run, s Stage) {
	o.events = append(o.events, "start:"+s.Name())
}
func (o *recordingObserver) Fragment(_ *Run, stage, f string) {
	o.events = append(o.events, "frag:"+stage+":"+f)
}
func (o *recordingObserver) StageCompleted(_ *Run, s Stage, _ Result, _ time.Duration) {
	o.events = append(o.events, "done:"+s.Name())
}
func (o *recordingObserver) StageFailed(_ *Run, s Stage, err *errors.AppError, _ time.Duration) {
	o.events = append(o.events, "fail:"+s.Name()+":"+string(err.Code))
}
func (o *recordingObserver) RunFinished(r *Run) { o.events = append(o.events, "run:"+string(r.Status)) }

func TestObserverEvents(t *testing.T) {
	client := llmtest.New(llmtest.Text("outline"), llmtest.Fragments("Hel", "lo"), llmtest.Fail(fmt.Errorf("down")))
	stages := []Stage{
		NewTextStage(StageConfig{Name: "outline", Prompt: staticPrompt("o"), Client: client}),
		NewStreamStage(StageConfig{Name: "draft", DependsOn: []string{"outline"}, Prompt: staticPrompt("d"), Client: client}),
		NewTextStage(StageConfig{Name: "seo", DependsOn: []string{"draft"}, Prompt: staticPrompt("s"), Client: client}),
	}
	obs := &recordingObserver{}
	run := NewRunner(WithObserver(Observers{obs}), WithLogger(logger.NewNop())).
		Run(context.Background(), stages, NewInput("topic", "", nil))

	want := []string{
		"run:start",
		"start:outline", "done:outline",
		"start:draft", "frag:draft:Hel", "frag:draft:lo", "done:draft",
		"start:seo", "fail:seo:REMOTE_CALL_ERROR",
		"run:failed",
	}
	if diff := cmp.Diff(want, obs.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if run.FailedStage != "seo" {
		t.Errorf("failed stage = %q", run.FailedStage)
	}
}

func staticPrompt(text string) PromptFunc {
	return func(Input, Deps) (llm.CompletionRequest, error) {
		return llm.UserPrompt(text, 100), nil
	}
}

var riskSchema = structured.Fields(
	structured.OneOf("risk_level", "low", "medium", "high"),
	structured.OneOf("complexity", "low", "medium", "high"),
)

// codeReviewStages builds the three-stage review used by the end-to-end
// scenarios.
func codeReviewStages(client llm.Client) []Stage {
	return []Stage{
		NewStructuredStage(StageConfig{
			Name:   "stage1",
			Client: client,
			Prompt: func(in Input, _ Deps) (llm.CompletionRequest, error) {
				return llm.UserPrompt("Analyze this diff:\n"+in.Text(), 2000), nil
			},
		}, riskSchema),
		NewTextStage(StageConfig{
			Name:      "stage2",
			DependsOn: []string{"stage1"},
			Client:    client,
			Prompt: func(in Input, deps Deps) (llm.CompletionRequest, error) {
				return llm.UserPrompt("Find bugs. Context: "+deps.Text("stage1")+"\n"+in.Text(), 3000), nil
			},
		}),
		NewTextStage(StageConfig{
			Name:      "stage3",
			DependsOn: []string{"stage1", "stage2"},
			Client:    client,
			Prompt: func(_ Input, deps Deps) (llm.CompletionRequest, error) {
				return llm.UserPrompt("Summarize:\n"+deps.Text("stage1")+"\n"+deps.Text("stage2"), 1500), nil
			},
		}),
	}
}

const twoLineDiff = `--- a/main.go
+++ b/main.go
-	fmt.Println("hi")
+	fmt.Println("hello")`

func TestEndToEndCodeReview(t *testing.T) {
	client := llmtest.New(
		llmtest.Text("Here is my analysis:\n```json\n{\"risk_level\": \"low\", \"complexity\": \"low\"}\n```"),
		llmtest.Text("No bugs found: the change only edits a string literal."),
		llmtest.Text("Recommendation: approve. Overall risk is low."),
	)
	run := newRunner().Run(context.Background(), codeReviewStages(client), NewInput(twoLineDiff, "diff.patch", nil))

	if !run.Succeeded() {
		t.Fatalf("expected success, got %v", run.Err)
	}
	if diff := cmp.Diff([]string{"stage1", "stage2", "stage3"}, run.State.Names()); diff != "" {
		t.Fatalf("state (-want +got):\n%s", diff)
	}

	analysis, _ := run.State.Get("stage1")
	rec := analysis.Record()
	if got := strings.ToUpper(rec.String("risk_level")); got != "LOW" {
		t.Errorf("risk level = %q", got)
	}
	if got := strings.ToUpper(rec.String("complexity")); got != "LOW" {
		t.Errorf("complexity = %q", got)
	}
	final, _ := run.State.Get("stage3")
	if !strings.Contains(final.Text(), "low") {
		t.Errorf("summary should mention the risk: %q", final.Text())
	}

	reqs := client.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(reqs))
	}
	if !strings.Contains(reqs[0].Prompt(), twoLineDiff) {
		t.Error("stage1 prompt should include the diff")
	}
	if !strings.Contains(reqs[2].Prompt(), "No bugs found") || !strings.Contains(reqs[2].Prompt(), `"risk_level": "low"`) {
		t.Errorf("stage3 prompt should include both dependencies: %q", reqs[2].Prompt())
	}
	if reqs[0].MaxTokens != 2000 || reqs[1].MaxTokens != 3000 || reqs[2].MaxTokens != 1500 {
		t.Error("max tokens not carried into requests")
	}
}

func TestEndToEndCodeReviewSchemaFailure(t *testing.T) {
	raw := "```json\n{\"risk_level\": \"low\"}\n```"
	client := llmtest.New(
		llmtest.Text(raw),
		llmtest.Text("never used"),
		llmtest.Text("never used"),
	)
	run := newRunner().Run(context.Background(), codeReviewStages(client), NewInput(twoLineDiff, "diff.patch", nil))

	if run.Status != StatusFailed || run.FailedStage != "stage1" {
		t.Fatalf("expected failure at stage1, got %s", run)
	}
	if run.FailureCode() != errors.ErrCodeSchemaViolation {
		t.Errorf("code = %s", run.FailureCode())
	}
	if run.State.Len() != 0 {
		t.Errorf("state should be empty, got %v", run.State.Names())
	}
	if client.Calls() != 1 {
		t.Errorf("stages 2 and 3 must not execute; calls = %d", client.Calls())
	}
	if run.Err.Details["raw_response"] != raw {
		t.Errorf("raw response missing from error details")
	}
	if !strings.Contains(run.Err.Message, "complexity") {
		t.Errorf("message should name the missing field: %q", run.Err.Message)
	}
	if errors.ExitCode(run.Err) != errors.ExitStageFailure {
		t.Errorf("exit code = %d", errors.ExitCode(run.Err))
	}
}
