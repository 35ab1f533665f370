package llm

import (
	"bufio"
	"context"
	"io"

	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/httpclient/sse"
)

// maxNDJSONLine bounds a single NDJSON line.
const maxNDJSONLine = 1 << 20

// readStream dispatches to the appropriate stream reader based on the dialect's format.
func (a *Adapter) readStream(ctx context.Context, resp *httpclient.StreamResponse, ch chan<- StreamChunk) {
	defer close(ch)
	defer func() { _ = resp.Close() }()

	switch a.dialect.StreamFormat() {
	case StreamSSE:
		a.readSSEStream(ctx, resp.SSE, ch)
	case StreamNDJSON:
		a.readNDJSONStream(ctx, resp.Body, ch)
	}
}

// readSSEStream reads Server-Sent Events and parses each data payload.
func (a *Adapter) readSSEStream(ctx context.Context, reader sse.Reader, ch chan<- StreamChunk) {
	if reader == nil {
		send(ctx, ch, StreamChunk{Err: ErrNoSSEReader})
		return
	}

	for {
		event, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				err = ErrStreamInterrupted
			}
			send(ctx, ch, StreamChunk{Err: streamErr(ctx, err)})
			return
		}
		if event.Data == "" {
			continue
		}
		if !a.emit(ctx, ch, []byte(event.Data)) {
			return
		}
	}
}

// readNDJSONStream reads newline-delimited JSON and parses each line.
func (a *Adapter) readNDJSONStream(ctx context.Context, body io.ReadCloser, ch chan<- StreamChunk) {
	if body == nil {
		send(ctx, ch, StreamChunk{Err: ErrNoStreamBody})
		return
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxNDJSONLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !a.emit(ctx, ch, line) {
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = ErrStreamInterrupted
	}
	send(ctx, ch, StreamChunk{Err: streamErr(ctx, err)})
}

// emit parses one payload and forwards it. It reports whether reading
// should continue.
func (a *Adapter) emit(ctx context.Context, ch chan<- StreamChunk, data []byte) bool {
	content, done, err := a.dialect.ParseStreamChunk(data)
	if err != nil {
		send(ctx, ch, StreamChunk{Err: err})
		return false
	}
	if content == "" && !done {
		return true
	}
	if !send(ctx, ch, StreamChunk{Content: content, Done: done}) {
		return false
	}
	return !done
}

// send delivers a chunk unless ctx is cancelled first.
func send(ctx context.Context, ch chan<- StreamChunk, c StreamChunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamErr prefers the context error when the read failed because the
// caller cancelled.
func streamErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
