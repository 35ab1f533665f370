package provider

import (
	"context"

	"github.com/kbukum/llmflow/observability"
)

// WithTracing returns a Middleware that opens an OpenTelemetry span around
// each call. Stream spans stay open until the chunk channel is drained.
// The span name is "{serviceName}.{providerName}".
func WithTracing[I, O any, C Chunk](serviceName string) Middleware[I, O, C] {
	return func(inner Streamable[I, O, C]) Streamable[I, O, C] {
		return &tracingProvider[I, O, C]{inner: inner, serviceName: serviceName}
	}
}

type tracingProvider[I, O any, C Chunk] struct {
	inner       Streamable[I, O, C]
	serviceName string
}

func (t *tracingProvider[I, O, C]) Name() string { return t.inner.Name() }
func (t *tracingProvider[I, O, C]) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}
func (t *tracingProvider[I, O, C]) Close(ctx context.Context) error { return Close(ctx, t.inner) }

func (t *tracingProvider[I, O, C]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, t.serviceName+"."+t.inner.Name())
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, t.serviceName)
	observability.SetSpanAttribute(ctx, observability.AttrOperationName, "execute")

	output, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return output, err
}

func (t *tracingProvider[I, O, C]) Stream(ctx context.Context, input I) (<-chan C, error) {
	spanCtx, span := observability.StartSpan(ctx, t.serviceName+"."+t.inner.Name())
	observability.SetSpanAttribute(spanCtx, observability.AttrServiceName, t.serviceName)
	observability.SetSpanAttribute(spanCtx, observability.AttrOperationName, "stream")

	ch, err := t.inner.Stream(spanCtx, input)
	if err != nil {
		observability.SetSpanError(spanCtx, err)
		span.End()
		return nil, err
	}
	return observeStream(ctx, ch, func(n int, err error) {
		observability.SetSpanAttribute(spanCtx, observability.AttrFragments, n)
		if err != nil {
			observability.SetSpanError(spanCtx, err)
		}
		span.End()
	}), nil
}
