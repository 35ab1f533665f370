package main

import (
	"github.com/kbukum/llmflow/config"
	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/llm"
	"github.com/kbukum/llmflow/llm/anthropic"
	"github.com/kbukum/llmflow/observability"
	"github.com/kbukum/llmflow/report"
	"github.com/kbukum/llmflow/source"
	"github.com/kbukum/llmflow/validation"
)

// AppConfig is the llmflow configuration. It is read from config.yml,
// .env, and the environment:
//
//	llm:
//	  dialect: anthropic
//	  model: claude-sonnet-4-5-20250929
//	fetch:
//	  max_chars: 10000
//	report:
//	  width: 100
//	observability:
//	  enabled: true
//	  endpoint: localhost:4318
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	LLM           llm.Config           `yaml:"llm" mapstructure:"llm"`
	Anthropic     AnthropicConfig      `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch         source.Config        `yaml:"fetch" mapstructure:"fetch"`
	Report        report.Config        `yaml:"report" mapstructure:"report"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// AnthropicConfig holds the credential bound from ANTHROPIC_API_KEY.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// ApplyDefaults fills unset fields, then hands the Anthropic key to the
// LLM config when the anthropic dialect is selected.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.LLM.Dialect == "" {
		c.LLM.Dialect = anthropic.DialectName
	}
	if c.LLM.Dialect == anthropic.DialectName && c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Anthropic.APIKey
	}
	c.LLM.ApplyDefaults()
	c.Fetch.ApplyDefaults()
}

// Validate checks every section. A missing credential is not caught here;
// the dialect reports it when the client is built.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Report); err != nil {
		return err
	}
	if err := validation.Validate(&c.Observability); err != nil {
		return errors.Configuration("invalid observability configuration").WithCause(err)
	}
	return nil
}
