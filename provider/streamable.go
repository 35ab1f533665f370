package provider

import "context"

// Streamable represents a provider that supports both single-response and
// streaming modes for the same input type.
//
// I is the input/request type.
// O is the single-response output type (from Execute).
// C is the streamed chunk type (from Stream).
type Streamable[I, O any, C Chunk] interface {
	RequestResponse[I, O]
	// Stream sends a request and returns a channel of chunks in arrival
	// order. The channel is closed when the stream ends. A failure after the
	// stream has started is delivered as a chunk whose ChunkErr is non-nil.
	Stream(ctx context.Context, input I) (<-chan C, error)
}

// Chunk is one streamed value. ChunkErr reports a terminal failure carried
// in-band; it is nil for ordinary data chunks.
type Chunk interface {
	ChunkErr() error
}

// observeStream forwards every chunk from in to the returned channel and
// calls done once in is closed or ctx is cancelled, with the number of
// chunks forwarded and the first in-band error seen.
func observeStream[C Chunk](ctx context.Context, in <-chan C, done func(n int, err error)) <-chan C {
	out := make(chan C)
	go func() {
		defer close(out)
		var (
			n        int
			firstErr error
		)
		defer func() { done(n, firstErr) }()

		for {
			select {
			case c, ok := <-in:
				if !ok {
					return
				}
				if err := c.ChunkErr(); err != nil && firstErr == nil {
					firstErr = err
				}
				select {
				case out <- c:
					n++
				case <-ctx.Done():
					if firstErr == nil {
						firstErr = ctx.Err()
					}
					return
				}
			case <-ctx.Done():
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				return
			}
		}
	}()
	return out
}
