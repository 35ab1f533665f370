package llm

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/llmflow/errors"
)

// StreamFormat indicates how a provider delivers streaming responses.
type StreamFormat int

const (
	// StreamNDJSON uses newline-delimited JSON (one JSON object per line).
	// Used by: Ollama.
	StreamNDJSON StreamFormat = iota
	// StreamSSE uses Server-Sent Events.
	// Used by: Anthropic.
	StreamSSE
)

// Dialect maps universal LLM types to and from one provider's HTTP format.
type Dialect interface {
	// Name returns the dialect identifier.
	Name() string

	// ChatPath returns the completion endpoint path.
	ChatPath() string

	// HealthPath returns a cheap GET endpoint used by IsAvailable.
	// Empty means the provider is assumed available.
	HealthPath() string

	// BuildRequest maps a universal request to the provider's JSON body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse maps the provider's JSON response body.
	ParseResponse(body []byte) (*CompletionResponse, error)

	// StreamFormat returns how this provider delivers streaming data.
	StreamFormat() StreamFormat

	// ParseStreamChunk extracts text from one stream payload and reports
	// whether it is the provider's end-of-stream marker. Payloads that
	// carry no text (pings, metadata) return "" and false.
	ParseStreamChunk(data []byte) (content string, done bool, err error)
}

// Configurer is implemented by dialects that fill transport defaults and
// check credentials before an adapter is built. A missing credential is
// reported as a CONFIGURATION_ERROR.
type Configurer interface {
	Configure(cfg *Config) error
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the global registry. Dialect packages
// call it from init so that importing them is enough:
//
//	import _ "github.com/kbukum/llmflow/llm/anthropic"
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name from the global registry.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, errors.Configuration(fmt.Sprintf("unknown llm dialect %q", name)).
			WithDetail("registered", registeredNames())
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return registeredNames()
}

func registeredNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
