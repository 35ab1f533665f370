package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
)

func okStage(name string) Stage {
	return Func(name, KindText, nil, func(context.Context, Input, Deps) (Result, error) {
		return TextResult("result of " + name), nil
	})
}

func failStage(name string) Stage {
	return Func(name, KindText, nil, func(context.Context, Input, Deps) (Result, error) {
		return Result{}, errors.RemoteCall(name, context.DeadlineExceeded)
	})
}

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestWithTracing(t *testing.T) {
	rec := withSpanRecorder(t)
	traced := WithTracing(failStage("bugs"), observability.SpanStage)
	if traced.Name() != "bugs" || traced.Kind() != KindText {
		t.Fatalf("wrapper must keep identity")
	}

	_, err := traced.Execute(context.Background(), NewInput("", "", nil), Deps{})
	if !errors.Is(err, errors.ErrCodeRemoteCall) {
		t.Fatalf("expected stage error, got %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "pipeline.stage.bugs" {
		t.Fatalf("unexpected spans: %v", spans)
	}
	var code string
	for _, a := range spans[0].Attributes() {
		if string(a.Key) == observability.AttrErrorCode {
			code = a.Value.AsString()
		}
	}
	if code != string(errors.ErrCodeRemoteCall) {
		t.Errorf("error code attribute = %q", code)
	}
}

func TestRunnerCreatesRunSpan(t *testing.T) {
	rec := withSpanRecorder(t)
	stages := Instrument([]Stage{okStage("a")}, nil, nil)
	run := NewRunner(WithName("demo"), WithLogger(logger.NewNop())).Run(context.Background(), stages, NewInput("", "", nil))
	if !run.Succeeded() {
		t.Fatal(run.Err)
	}

	names := map[string]bool{}
	for _, s := range rec.Ended() {
		names[s.Name()] = true
	}
	if !names[observability.SpanPipelineRun] || !names["pipeline.stage.a"] {
		t.Errorf("missing spans: %v", names)
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: "json"}, "llmflow")

	if _, err := WithLogging(okStage("outline"), log).Execute(context.Background(), NewInput("", "", nil), Deps{}); err != nil {
		t.Fatal(err)
	}
	if _, err := WithLogging(failStage("seo"), log).Execute(context.Background(), NewInput("", "", nil), Deps{}); err == nil {
		t.Fatal("expected error")
	}

	out := buf.String()
	for _, want := range []string{`"stage completed"`, `"stage":"outline"`, `"stage failed"`, `"code":"REMOTE_CALL_ERROR"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestWithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(mp.Meter("pipeline-test"))
	if err != nil {
		t.Fatal(err)
	}

	stages := Instrument([]Stage{okStage("a"), failStage("b")}, logger.NewNop(), metrics)
	run := NewRunner(WithRunMetrics(metrics), WithLogger(logger.NewNop())).Run(context.Background(), stages, NewInput("", "", nil))
	if run.Succeeded() {
		t.Fatal("expected failure")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	for _, name := range []string{"pipeline.run.total", "pipeline.stage.total", "pipeline.stage.duration", "error.total"} {
		if !found[name] {
			t.Errorf("metric %q not recorded; got %v", name, found)
		}
	}
}
