// Package sse reads Server-Sent Events from a streaming HTTP body.
package sse

import (
	"bufio"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Model deltas are small, but a
// final usage event can carry a large JSON payload.
const maxLineSize = 1 << 20

// Event represents a single server-sent event.
type Event struct {
	// Event is the type from the "event:" line. Empty for data-only events.
	Event string
	// Data is the payload. Multi-line data is joined with newlines.
	Data string
	// ID is the value of the "id:" line.
	ID string
}

// Reader reads server-sent events from a stream.
type Reader interface {
	// Next returns the next event, or io.EOF once the stream ends cleanly.
	Next() (*Event, error)
	// Close releases the underlying stream.
	Close() error
}

type reader struct {
	scanner *bufio.Scanner
	body    io.ReadCloser
}

// NewReader creates an SSE reader over body.
func NewReader(body io.ReadCloser) Reader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &reader{scanner: scanner, body: body}
}

func (r *reader) Next() (*Event, error) {
	var (
		event   Event
		hasData bool
	)

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		// A blank line dispatches the event.
		if line == "" {
			if hasData {
				return &event, nil
			}
			event = Event{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "data":
			if hasData {
				event.Data += "\n" + value
			} else {
				event.Data = value
				hasData = true
			}
		case "event":
			event.Event = value
		case "id":
			event.ID = value
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	// An event without its trailing blank line is still delivered.
	if hasData {
		return &event, nil
	}
	return nil, io.EOF
}

func (r *reader) Close() error {
	return r.body.Close()
}

// parseLine splits "field: value", dropping one leading space from value.
func parseLine(line string) (field, value string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
