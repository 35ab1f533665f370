// Package llm provides a config-driven LLM adapter built on the httpclient package.
//
// The adapter works with any LLM provider via the Dialect pattern, similar
// to how database/sql works with driver packages.
//
// # Architecture
//
//   - Universal types: [CompletionRequest], [CompletionResponse], [StreamChunk], [Message], [Usage]
//   - [Dialect] interface: maps universal types to and from a provider's HTTP format
//   - [Adapter]: composes the HTTP client and a Dialect into a complete [Client]
//   - Dialect registry: [RegisterDialect] / [GetDialect] for config-driven selection
//   - [Instrument]: wraps any Client with logging, tracing, and metrics middleware
//
// # Usage
//
// Import a dialect package for side-effect registration, then create an adapter:
//
//	import (
//	    "github.com/kbukum/llmflow/llm"
//	    _ "github.com/kbukum/llmflow/llm/anthropic"
//	)
//
//	adapter, err := llm.New(llm.Config{
//	    Dialect: "anthropic",
//	    APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
//	    Model:   "claude-sonnet-4-5-20250929",
//	})
//
//	resp, err := adapter.Execute(ctx, llm.UserPrompt("Hello!", 1024))
//
// # Streaming
//
// Stream returns a channel of [StreamChunk]. A successful stream ends with a
// chunk whose Done is set. A failed stream ends with a chunk whose Err is
// set; a connection that closes early yields [ErrStreamInterrupted].
package llm
