package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PostJSON sends body as JSON and decodes a 2xx response into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return doJSON[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

// GetJSON performs a GET and decodes a 2xx response into T.
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	return doJSON[T](ctx, c, Request{Method: http.MethodGet, Path: path})
}

func doJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	if _, ok := req.Headers["Accept"]; !ok {
		req.Headers["Accept"] = "application/json"
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode response: %w", err)
	}
	return out, nil
}
