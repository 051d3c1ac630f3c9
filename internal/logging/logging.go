// Package logging builds the process logger. Call sites use log/slog;
// records are rendered by charmbracelet/log.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Option configures New.
type Option func(*log.Options)

// WithVerbose lowers the level to debug.
func WithVerbose(verbose bool) Option {
	return func(o *log.Options) {
		if verbose {
			o.Level = log.DebugLevel
		}
	}
}

// WithJSON renders one JSON object per record, for --format json runs.
func WithJSON(enabled bool) Option {
	return func(o *log.Options) {
		if enabled {
			o.Formatter = log.JSONFormatter
		}
	}
}

// WithPrefix labels every line.
func WithPrefix(prefix string) Option {
	return func(o *log.Options) {
		o.Prefix = prefix
	}
}

// New returns a logger writing to w. Without options only warnings and
// errors are shown.
func New(w io.Writer, opts ...Option) *slog.Logger {
	o := log.Options{Level: log.WarnLevel}
	for _, opt := range opts {
		opt(&o)
	}
	return slog.New(log.NewWithOptions(w, o))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard)
}
