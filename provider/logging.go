package provider

import (
	"context"
	"time"

	"github.com/kbukum/llmflow/logger"
)

// WithLogging returns a Middleware that logs each Execute call and each
// stream once it has been drained.
func WithLogging[I, O any, C Chunk](log *logger.Logger) Middleware[I, O, C] {
	return func(inner Streamable[I, O, C]) Streamable[I, O, C] {
		return &loggingProvider[I, O, C]{inner: inner, log: log}
	}
}

type loggingProvider[I, O any, C Chunk] struct {
	inner Streamable[I, O, C]
	log   *logger.Logger
}

func (l *loggingProvider[I, O, C]) Name() string { return l.inner.Name() }
func (l *loggingProvider[I, O, C]) IsAvailable(ctx context.Context) bool {
	return l.inner.IsAvailable(ctx)
}
func (l *loggingProvider[I, O, C]) Close(ctx context.Context) error { return Close(ctx, l.inner) }

func (l *loggingProvider[I, O, C]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)
	l.record(ctx, "execute", time.Since(start), -1, err)
	return output, err
}

func (l *loggingProvider[I, O, C]) Stream(ctx context.Context, input I) (<-chan C, error) {
	start := time.Now()
	ch, err := l.inner.Stream(ctx, input)
	if err != nil {
		l.record(ctx, "stream", time.Since(start), 0, err)
		return nil, err
	}
	return observeStream(ctx, ch, func(n int, err error) {
		l.record(ctx, "stream", time.Since(start), n, err)
	}), nil
}

func (l *loggingProvider[I, O, C]) record(ctx context.Context, op string, d time.Duration, chunks int, err error) {
	fields := logger.Fields(
		"provider", l.inner.Name(),
		logger.FieldOperation, op,
		logger.FieldDuration, d.Milliseconds(),
	)
	if chunks >= 0 {
		fields["chunks"] = chunks
	}
	log := l.log.WithContext(ctx)
	if err != nil {
		log.Error("provider call failed", logger.MergeWithError(fields, err))
		return
	}
	log.Debug("provider call ok", fields)
}
