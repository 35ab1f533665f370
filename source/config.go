package source

import (
	"time"

	"github.com/kbukum/llmflow/validation"
	"github.com/kbukum/llmflow/version"
)

const (
	// DefaultMaxChars bounds extracted page text.
	DefaultMaxChars = 10000
	// TruncationMarker is appended to page text cut at MaxChars.
	TruncationMarker = "\n\n[Content truncated...]"

	defaultFetchTimeout = 10 * time.Second
	defaultGitTimeout   = 30 * time.Second
)

// Config configures input acquisition.
type Config struct {
	// Timeout bounds a URL fetch.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxChars caps the text extracted from a fetched page.
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars" validate:"gte=0"`
	// UserAgent is sent with every fetch.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// GitDir is the repository a git diff is taken from. Empty means the
	// current directory.
	GitDir string `yaml:"git_dir" mapstructure:"git_dir"`
	// GitTimeout bounds a git invocation.
	GitTimeout time.Duration `yaml:"git_timeout" mapstructure:"git_timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultFetchTimeout
	}
	if c.MaxChars == 0 {
		c.MaxChars = DefaultMaxChars
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; " + version.UserAgent() + ")"
	}
	if c.GitTimeout <= 0 {
		c.GitTimeout = defaultGitTimeout
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
