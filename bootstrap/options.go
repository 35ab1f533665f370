package bootstrap

import (
	"time"

	"github.com/kbukum/llmflow/logger"
)

// Option configures NewApp. Options are not generic, so one set serves
// every config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
}

// WithLogger uses l instead of initializing the global logger from the
// config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds the time stop hooks get after the task ends.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}
