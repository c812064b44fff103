// Package logging builds the process-wide slog.Logger: a human-readable
// stderr handler when attached to a terminal, JSON otherwise, optionally fanned
// out to a size-rotated JSON log file.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "PASSGEN_LOG_LEVEL"

// ParseLevel accepts debug, info, warn (or warning) and error, case
// insensitively. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", s)
	}
}

// Options selects where log records go.
type Options struct {
	// Level is the minimum level for every sink.
	Level slog.Level
	// Stderr receives human-facing output; nil means os.Stderr.
	Stderr io.Writer
	// Format forces "text" or "json" on Stderr; "" picks text for
	// terminals and JSON otherwise.
	Format string
	// File, when non-empty, adds a JSON sink rotated per Rotation.
	File     string
	Rotation Rotation
}

// New builds a logger from opts. The returned close function releases the log
// file, if any, and is always non-nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var console slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		console = slog.NewTextHandler(stderr, handlerOpts)
	case "json":
		console = slog.NewJSONHandler(stderr, handlerOpts)
	case "":
		if isTerminal(stderr) {
			console = slog.NewTextHandler(stderr, handlerOpts)
		} else {
			console = slog.NewJSONHandler(stderr, handlerOpts)
		}
	default:
		return nil, nil, fmt.Errorf("invalid log format: %q", opts.Format)
	}

	if opts.File == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	file, err := OpenRotating(opts.File, opts.Rotation)
	if err != nil {
		return nil, nil, err
	}
	h := fanout{console, slog.NewJSONHandler(file, handlerOpts)}
	return slog.New(h), file.Close, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// fanout delivers each record to every handler that accepts its level.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, c := range h {
		if c.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, c := range h {
		if c.Enabled(ctx, r.Level) {
			errs = append(errs, c.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, c := range h {
		out[i] = c.WithGroup(name)
	}
	return out
}
