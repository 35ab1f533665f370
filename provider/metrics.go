package provider

import (
	"context"
	"time"

	"github.com/kbukum/llmflow/observability"
)

// WithMetrics returns a Middleware that records operation count, duration,
// errors and streamed chunk counts on the given instruments.
func WithMetrics[I, O any, C Chunk](metrics *observability.Metrics) Middleware[I, O, C] {
	return func(inner Streamable[I, O, C]) Streamable[I, O, C] {
		return &metricsProvider[I, O, C]{inner: inner, metrics: metrics}
	}
}

type metricsProvider[I, O any, C Chunk] struct {
	inner   Streamable[I, O, C]
	metrics *observability.Metrics
}

func (m *metricsProvider[I, O, C]) Name() string { return m.inner.Name() }
func (m *metricsProvider[I, O, C]) IsAvailable(ctx context.Context) bool {
	return m.inner.IsAvailable(ctx)
}
func (m *metricsProvider[I, O, C]) Close(ctx context.Context) error { return Close(ctx, m.inner) }

func (m *metricsProvider[I, O, C]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	m.record(ctx, "execute", time.Since(start), err)
	return output, err
}

func (m *metricsProvider[I, O, C]) Stream(ctx context.Context, input I) (<-chan C, error) {
	start := time.Now()
	ch, err := m.inner.Stream(ctx, input)
	if err != nil {
		m.record(ctx, "stream", time.Since(start), err)
		return nil, err
	}
	// Recording uses a detached context so a cancelled run still counts.
	recordCtx := context.WithoutCancel(ctx)
	return observeStream(ctx, ch, func(n int, err error) {
		m.metrics.RecordFragments(recordCtx, m.inner.Name(), n)
		m.record(recordCtx, "stream", time.Since(start), err)
	}), nil
}

func (m *metricsProvider[I, O, C]) record(ctx context.Context, op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.metrics.RecordError(ctx, op, m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), op, status, d)
}
