package provider

// Middleware transforms a Streamable provider by wrapping it. The returned
// provider delegates to the original while adding cross-cutting behavior
// to both Execute and Stream.
type Middleware[I, O any, C Chunk] func(Streamable[I, O, C]) Streamable[I, O, C]

// Chain composes multiple middlewares into one. Middlewares are applied
// in order: the first middleware is outermost (executes first on the
// way in, last on the way out).
//
// Chain(a, b, c)(provider) is equivalent to a(b(c(provider))).
func Chain[I, O any, C Chunk](middlewares ...Middleware[I, O, C]) Middleware[I, O, C] {
	return func(inner Streamable[I, O, C]) Streamable[I, O, C] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
