package config

import (
	"fmt"
	"slices"

	"github.com/kbukum/llmflow/errors"
	"github.com/kbukum/llmflow/logger"
)

var validEnvironments = []string{"development", "staging", "production"}

// ServiceConfig contains the fields every llmflow binary needs.
// Application configs embed it:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    LLM llm.Config       `yaml:"llm" mapstructure:"llm"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig returns the base ServiceConfig. The method is promoted
// through embedding.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields. Embedding structs call it first from
// their own ApplyDefaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "llmflow"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the base fields and returns a CONFIGURATION_ERROR on
// the first problem found.
func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.Configuration("name is required")
	}
	if !slices.Contains(validEnvironments, c.Environment) {
		return errors.Configuration(fmt.Sprintf(
			"environment must be one of %v (got: %s)", validEnvironments, c.Environment))
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.Configuration("invalid logging configuration").WithCause(err)
	}
	return nil
}
