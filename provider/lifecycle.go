package provider

import "context"

// Closeable is optionally implemented by providers that hold resources
// requiring explicit cleanup (idle HTTP connections, child processes).
type Closeable interface {
	Close(ctx context.Context) error
}

// Close closes p if it implements Closeable and is a no-op otherwise.
func Close(ctx context.Context, p any) error {
	if c, ok := p.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}
