package internal

import (
	"log/slog"

	"github.com/starford/gnotes/internal/noteservice"
)

// Option is a functional option for configuring Serve.
type Option func(*application)

type application struct {
	config      *Config
	logger      *slog.Logger
	serviceOpts []noteservice.Option
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger. Without it a JSON logger built from the
// config writes to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithServiceOptions passes options through to the note service, e.g. the
// remote syncer.
func WithServiceOptions(opts ...noteservice.Option) Option {
	return func(a *application) {
		a.serviceOpts = append(a.serviceOpts, opts...)
	}
}
