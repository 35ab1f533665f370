package pipeline

import (
	"context"
	"time"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/logger"
	"github.com/kbukum/llmflow/observability"
)

// Wrapper is implemented by stage decorators so the wrapped stage can be
// reached, for example to read a StructuredStage's schema.
type Wrapper interface {
	Unwrap() Stage
}

// Unwrap returns the innermost stage beneath any decorators.
func Unwrap(s Stage) Stage {
	for {
		w, ok := s.(Wrapper)
		if !ok {
			return s
		}
		s = w.Unwrap()
	}
}

type wrapped struct{ inner Stage }

func (w wrapped) Name() string        { return w.inner.Name() }
func (w wrapped) DependsOn() []string { return w.inner.DependsOn() }
func (w wrapped) Kind() Kind          { return w.inner.Kind() }
func (w wrapped) Unwrap() Stage       { return w.inner }

// WithTracing wraps a Stage with OpenTelemetry span creation.
// Each execution creates a span named "{prefix}.{stageName}".
func WithTracing(stage Stage, prefix string) Stage {
	return &tracingStage{wrapped: wrapped{stage}, prefix: prefix}
}

type tracingStage struct {
	wrapped
	prefix string
}

func (s *tracingStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	ctx, span := observability.StartSpan(ctx, s.prefix+"."+s.inner.Name())
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrStage, s.inner.Name())
	observability.SetSpanAttribute(ctx, observability.AttrStageKind, s.inner.Kind())

	result, err := s.inner.Execute(ctx, in, deps)
	if err != nil {
		observability.SetSpanAttribute(ctx, observability.AttrErrorCode, string(errors.CodeOf(err)))
		observability.SetSpanError(ctx, err)
	}
	return result, err
}

// WithMetrics wraps a Stage with metric recording.
// Records stage count and duration by status, and errors by code.
func WithMetrics(stage Stage, metrics *observability.Metrics) Stage {
	return &metricsStage{wrapped: wrapped{stage}, metrics: metrics}
}

type metricsStage struct {
	wrapped
	metrics *observability.Metrics
}

func (s *metricsStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	start := time.Now()
	result, err := s.inner.Execute(ctx, in, deps)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		s.metrics.RecordError(ctx, string(errors.CodeOf(err)), s.inner.Name())
	}
	s.metrics.RecordStage(ctx, s.inner.Name(), s.inner.Kind().String(), status, duration)
	return result, err
}

// WithLogging wraps a Stage with execution logging.
// Logs: stage name, kind, duration, and success/error status.
func WithLogging(stage Stage, log *logger.Logger) Stage {
	return &loggingStage{wrapped: wrapped{stage}, log: log}
}

type loggingStage struct {
	wrapped
	log *logger.Logger
}

func (s *loggingStage) Execute(ctx context.Context, in Input, deps Deps) (Result, error) {
	log := s.log.WithContext(ctx)
	log.Debug("stage started", logger.Fields(
		logger.FieldStage, s.inner.Name(),
		logger.FieldKind, s.inner.Kind().String(),
		"depends_on", s.inner.DependsOn(),
	))

	start := time.Now()
	result, err := s.inner.Execute(ctx, in, deps)
	fields := logger.StageFields(s.inner.Name(), time.Since(start))
	fields[logger.FieldKind] = s.inner.Kind().String()

	if err != nil {
		fields[logger.FieldCode] = string(errors.CodeOf(err))
		log.Error("stage failed", logger.MergeWithError(fields, err))
		return result, err
	}
	fields[logger.FieldBytes] = len(result.Text())
	log.Info("stage completed", fields)
	return result, err
}

// Instrument decorates every stage with a tracing span, plus logging and
// metrics when log or metrics is non-nil. Tracing is outermost.
func Instrument(stages []Stage, log *logger.Logger, metrics *observability.Metrics) []Stage {
	out := make([]Stage, len(stages))
	for i, s := range stages {
		if log != nil {
			s = WithLogging(s, log)
		}
		if metrics != nil {
			s = WithMetrics(s, metrics)
		}
		s = WithTracing(s, observability.SpanStage)
		out[i] = s
	}
	return out
}
