// Package rlog configures the engine's structured logging: a console
// handler always on, fanned out to an optional file handler via
// slog-multi so a run can be diagnosed both interactively and from a
// saved log.
package rlog

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options controls New's handler construction.
type Options struct {
	// Verbose selects slog.LevelDebug over slog.LevelInfo.
	Verbose bool

	// File, when non-nil, receives a JSON-formatted copy of every record
	// in addition to the human-readable console output.
	File io.Writer
}

// New builds the engine's root logger. Every run stamps a "run_id" field
// via WithRunID so concurrent workers' interleaved lines can be
// attributed to their invocation.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	var handler slog.Handler = console
	if opts.File != nil {
		file := slog.NewJSONHandler(opts.File, &slog.HandlerOptions{Level: level})
		handler = slogmulti.Fanout(console, file)
	}

	return slog.New(handler)
}

// WithRunID returns a derived logger carrying the given run id on every
// subsequent record, correlating log lines from one worker across a
// single invocation.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// WithTask returns a derived logger tagged with a task name, used by the
// runner to attribute a worker's lines to the task it is executing.
func WithTask(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("task", name)
}
