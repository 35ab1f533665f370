// Package logger provides structured logging for llmflow using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Logs default to stderr; stdout is reserved
// for the pipeline report.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("pipeline")
//	log.Info("stage completed", logger.StageFields("analysis", d))
package logger
