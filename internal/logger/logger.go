// Package logger wraps zerolog.Logger with the small, project-specific API
// the engine, scheduler, and stage constructors depend on.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options configures a Logger at construction time.
type Options struct {
	Level         string // debug, info, warn, error; default info
	HumanReadable bool   // console writer instead of JSON
	Writer        io.Writer
	Component     string
}

// Logger is a thin wrapper around zerolog.Logger carrying a component
// field by default.
type Logger struct {
	base zerolog.Logger
}

// New builds a configured Logger.
func New(opts Options) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var w io.Writer = opts.Writer
	if w == nil {
		w = os.Stdout
	}
	if opts.HumanReadable {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	base := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if opts.Component != "" {
		base = base.With().Str("component", opts.Component).Logger()
	}

	return &Logger{base: base}
}

// NewDefault returns a Logger with sane defaults for a named component,
// used where dependency injection hasn't threaded a configured logger
// through (tests, ad-hoc CLI runs).
func NewDefault(component string) *Logger {
	return New(Options{Level: "info", HumanReadable: true, Component: component})
}

// With returns a derived logger carrying the supplied fields on every
// subsequent entry, without mutating the receiver.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil {
		return NewDefault("")
	}
	ctx := l.base.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{base: ctx.Logger()}
}

func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

func (l *Logger) Error(msg string, err error) {
	if l == nil {
		return
	}
	l.base.Error().Err(err).Msg(msg)
}
