package provider

import "context"

// Provider is a named backend that can report whether it is usable.
// IsAvailable is a cheap readiness probe: a health endpoint for an LLM
// service, a PATH lookup for a subprocess.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// RequestResponse answers one input with one output: a non-streamed
// completion, a git invocation.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}
