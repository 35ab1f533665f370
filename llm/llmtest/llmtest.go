// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/llmflow/llm"
)

// Reply is one scripted answer. For streamed calls Fragments is used when
// set, otherwise Text is sent as a single fragment. InterruptAfter >= 0
// ends the stream with llm.ErrStreamInterrupted after that many fragments.
type Reply struct {
	Text           string
	Fragments      []string
	Err            error
	InterruptAfter int
}

// Text returns a reply with the given text.
func Text(s string) Reply { return Reply{Text: s, InterruptAfter: -1} }

// Fragments returns a streamed reply delivered in pieces.
func Fragments(parts ...string) Reply {
	return Reply{Fragments: parts, Text: strings.Join(parts, ""), InterruptAfter: -1}
}

// Fail returns a reply that fails the call.
func Fail(err error) Reply { return Reply{Err: err, InterruptAfter: -1} }

// Interrupted returns a streamed reply that stops after n of parts.
func Interrupted(n int, parts ...string) Reply {
	return Reply{Fragments: parts, InterruptAfter: n}
}

// Client answers calls in order from a script. Once the script is
// exhausted, every further call fails.
type Client struct {
	mu       sync.Mutex
	name     string
	script   []Reply
	requests []llm.CompletionRequest
	closed   bool
}

// New creates a scripted client.
func New(replies ...Reply) *Client {
	return &Client{name: "llmtest", script: replies}
}

var _ llm.Client = (*Client)(nil)

func (c *Client) Name() string                        { return c.name }
func (c *Client) IsAvailable(_ context.Context) bool { return true }

// Close marks the client closed.
func (c *Client) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Requests returns the requests received so far.
func (c *Client) Requests() []llm.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.CompletionRequest(nil), c.requests...)
}

// Calls returns the number of calls received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *Client) next(req llm.CompletionRequest) (Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.script) == 0 {
		return Reply{}, fmt.Errorf("llmtest: no scripted reply for call %d", len(c.requests))
	}
	r := c.script[0]
	c.script = c.script[1:]
	return r, nil
}

// Execute returns the next scripted reply.
func (c *Client) Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return llm.CompletionResponse{}, err
	}
	r, err := c.next(req)
	if err != nil {
		return llm.CompletionResponse{}, err
	}
	if r.Err != nil {
		return llm.CompletionResponse{}, r.Err
	}
	return llm.CompletionResponse{Content: r.Text, Model: req.Model}, nil
}

// Stream delivers the next scripted reply as fragments.
func (c *Client) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := c.next(req)
	if err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	parts := r.Fragments
	if parts == nil {
		parts = []string{r.Text}
	}

	ch := make(chan llm.StreamChunk)
	go func() {
		defer close(ch)
		for i, p := range parts {
			if r.InterruptAfter >= 0 && i == r.InterruptAfter {
				sendChunk(ctx, ch, llm.StreamChunk{Err: llm.ErrStreamInterrupted})
				return
			}
			if !sendChunk(ctx, ch, llm.StreamChunk{Content: p}) {
				return
			}
		}
		if r.InterruptAfter >= 0 {
			sendChunk(ctx, ch, llm.StreamChunk{Err: llm.ErrStreamInterrupted})
			return
		}
		sendChunk(ctx, ch, llm.StreamChunk{Done: true})
	}()
	return ch, nil
}

func sendChunk(ctx context.Context, ch chan<- llm.StreamChunk, c llm.StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
