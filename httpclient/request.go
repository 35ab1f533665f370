package httpclient

import (
	"io"

	"github.com/kbukum/llmflow/httpclient/sse"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is appended to the client's BaseURL. It may be a full URL.
	Path string
	// Headers are request-specific headers, merged over client defaults.
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body accepts io.Reader, []byte, string, or any value that will be
	// JSON-encoded.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// Response is the result of a non-streaming request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	// Truncated is set when the body exceeded Config.MaxBodyBytes.
	Truncated bool
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Headers["Content-Type"]
}

// StreamResponse wraps a streaming HTTP response. Exactly one of SSE and
// Body is set, depending on the response Content-Type.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	// SSE is set for text/event-stream responses.
	SSE sse.Reader
	// Body is set for every other content type (NDJSON, raw bytes).
	Body io.ReadCloser
}

// Close releases the underlying connection.
func (r *StreamResponse) Close() error {
	if r.SSE != nil {
		return r.SSE.Close()
	}
	if r.Body != nil {
		return r.Body.Close()
	}
	return nil
}
