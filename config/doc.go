// Package config loads llmflow configuration.
//
// Values come from, in increasing precedence: registered defaults, a
// config.yml file, a .env file, and the process environment. Viper does
// the merging and godotenv reads .env files.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("llmflow", &cfg); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//
// Environment variables map onto nested keys by splitting on underscores,
// so ANTHROPIC_API_KEY sets anthropic.api_key.
package config
