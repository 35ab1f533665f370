// Package provider defines the interaction patterns shared by llmflow's
// backends and the middleware that decorates them.
//
//   - RequestResponse[I, O]: one input, one output
//   - Streamable[I, O, C]: the same input answered whole or as a stream of chunks
//   - Closeable: opt-in resource cleanup
//
// # Middleware
//
// Middleware wraps a Streamable provider so that logging, tracing and
// metrics cover both Execute and Stream. Use Chain to compose them:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse, llm.StreamChunk](log),
//	    provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse, llm.StreamChunk](metrics),
//	    provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse, llm.StreamChunk]("llmflow"),
//	)(adapter)
//
// Stream wrappers forward chunks unchanged and in order; their bookkeeping
// runs once the underlying channel closes.
package provider
