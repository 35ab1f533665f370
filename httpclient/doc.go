// Package httpclient is the HTTP transport used by the LLM adapters and the
// URL input source.
//
// It adds base URL resolution, default headers, API key or bearer auth,
// TLS settings, a response size cap, and classified errors on top of
// net/http. Streaming responses are exposed either as an SSE reader
// (text/event-stream) or as the raw body (NDJSON and others).
//
//	c, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.anthropic.com",
//	    Auth:    httpclient.APIKeyAuth(key, "x-api-key"),
//	})
//	stream, err := c.DoStream(ctx, httpclient.Request{Method: http.MethodPost, Path: "/v1/messages", Body: body})
//	defer stream.Close()
//
// Requests are sent once. A failed call is reported to the caller as a
// *Error and is never retried here.
package httpclient
