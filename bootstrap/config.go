package bootstrap

import (
	"github.com/kbukum/llmflow/config"
)

// Config is the constraint for application configuration types. Any
// struct embedding config.ServiceConfig satisfies it through promoted
// methods, as long as it does not shadow them with incompatible ones.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    LLM llm.Config       `yaml:"llm" mapstructure:"llm"`
//	}
//
//	app, err := bootstrap.NewApp[*AppConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
