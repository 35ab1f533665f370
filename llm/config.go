package llm

import (
	"time"

	"github.com/kbukum/llmflow/httpclient"
	"github.com/kbukum/llmflow/validation"
)

// Config holds configuration for creating an LLM adapter.
// The Dialect field selects the provider mapping.
type Config struct {
	// Name identifies this adapter instance in logs and spans.
	Name string `yaml:"name" mapstructure:"name"`

	// Dialect selects the provider mapping ("anthropic", "ollama").
	// Must match a dialect registered via RegisterDialect.
	Dialect string `yaml:"dialect" mapstructure:"dialect" validate:"required"`

	// BaseURL is the provider's API base URL. Dialects supply a default.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// APIKey is the credential for dialects that need one. It is usually
	// bound from the dialect's environment variable, e.g. ANTHROPIC_API_KEY.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// Model is the default model.
	Model string `yaml:"model" mapstructure:"model"`

	// Temperature is the default sampling temperature. 0 leaves it to the provider.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`

	// MaxTokens is the default response limit for requests that set none.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`

	// Timeout bounds non-streaming requests. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures TLS for the connection.
	TLS *httpclient.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth overrides the dialect's credential handling.
	Auth *httpclient.AuthConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
}

// Validate checks struct constraints. Credential checks belong to the
// dialect and run when the adapter is built.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
